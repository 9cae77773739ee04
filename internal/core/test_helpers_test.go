package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeConn records pushes in memory.
type fakeConn struct {
	id     string
	userID string

	mu     sync.Mutex
	events []*Event
	fail   bool
	closed bool
}

func newFakeConn(id, userID string) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (f *fakeConn) ID() string     { return f.id }
func (f *fakeConn) UserID() string { return f.userID }

func (f *fakeConn) Push(ev *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	if f.closed {
		return ErrConnClosed
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) ofKind(kind EventKind) []*Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Event
	for _, ev := range f.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeConn) lastPresence(t *testing.T) []string {
	t.Helper()
	evs := f.ofKind(EventPresence)
	require.NotEmpty(t, evs, "no presence update received by %s", f.id)
	return evs[len(evs)-1].Online
}

func newTestHub(auth Authenticator) *Hub {
	return NewHub(auth, HubConfig{HandshakeTimeout: time.Second, ClientBuffer: 4}, nil)
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		require.NotNil(t, ev)
		require.Equal(t, kind, ev.Kind)
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("expected event kind %v not received", kind)
		return nil
	}
}
