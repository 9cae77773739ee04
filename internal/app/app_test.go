package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	stdhttp "net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

func startApp(t *testing.T) (string, func() error) {
	t.Helper()

	cfg := config.Default()
	cfg.JWTSecret = "testsecret"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "wirechat.db")
	cfg.ShutdownTimeout = 2 * time.Second

	logger := zerolog.Nop()
	application, err := New(&cfg, &logger)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, ln) }()

	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("app did not shut down")
			return nil
		}
	}
	return ln.Addr().String(), stop
}

func TestServeAndShutdown(t *testing.T) {
	addr, stop := startApp(t)

	resp, err := stdhttp.Get("http://" + addr + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	assert.NoError(t, stop())
}

func TestServeAcceptsWebSocketSessions(t *testing.T) {
	addr, stop := startApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.NoError(t, err)
	resp, err := stdhttp.Post("http://"+addr+"/api/auth/signup", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode)
	var signup struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&signup))
	_ = resp.Body.Close()

	conn, _, err := websocket.Dial(ctx, "ws://"+addr+"/ws", &websocket.DialOptions{
		HTTPHeader: stdhttp.Header{"Authorization": {"Bearer " + signup.Token}},
	})
	require.NoError(t, err)
	defer conn.CloseNow()

	var out struct {
		Type  string              `json:"type"`
		Event string              `json:"event"`
		Data  proto.EventPresence `json:"data"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	assert.Equal(t, proto.EventPresenceUpdate, out.Event)
	assert.Equal(t, []string{signup.User.ID}, out.Data.Online)

	// Shutdown closes the live session instead of waiting on it.
	require.NoError(t, stop())
	for err == nil {
		err = wsjson.Read(ctx, conn, &out)
	}
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}
