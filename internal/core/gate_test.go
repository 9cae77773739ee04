package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFunc func(ctx context.Context, credential string) (Identity, error)

func (f authFunc) Authenticate(ctx context.Context, credential string) (Identity, error) {
	return f(ctx, credential)
}

var errBadToken = errors.New("bad token")

func staticAuth(tokens map[string]Identity) Authenticator {
	return authFunc(func(_ context.Context, credential string) (Identity, error) {
		id, ok := tokens[credential]
		if !ok {
			return Identity{}, errBadToken
		}
		return id, nil
	})
}

func TestGateAdmitsValidCredential(t *testing.T) {
	hub := newTestHub(staticAuth(map[string]Identity{"tok": {UserID: "u1", Username: "alice"}}))

	client, err := hub.Admit(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", client.UserID())
	assert.Equal(t, "alice", client.Identity().Username)
	assert.NotEmpty(t, client.ID())

	// Admission alone does not register.
	assert.False(t, hub.IsOnline("u1"))
}

func TestGateRejectsMissingCredential(t *testing.T) {
	hub := newTestHub(staticAuth(nil))

	_, err := hub.Admit(context.Background(), "  ")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Empty(t, hub.Online())
}

func TestGateRejectsInvalidCredential(t *testing.T) {
	hub := newTestHub(staticAuth(map[string]Identity{"tok": {UserID: "u1"}}))

	_, err := hub.Admit(context.Background(), "forged")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, errBadToken)
	assert.Empty(t, hub.Online())
}

func TestGateTimesOutSlowAuthenticator(t *testing.T) {
	slow := authFunc(func(ctx context.Context, _ string) (Identity, error) {
		<-ctx.Done()
		return Identity{}, ctx.Err()
	})
	gate := NewGate(slow, 50*time.Millisecond, 4, newTestHub(nil).log)

	start := time.Now()
	_, err := gate.Admit(context.Background(), "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGateRejectsEmptyIdentity(t *testing.T) {
	hub := newTestHub(authFunc(func(context.Context, string) (Identity, error) {
		return Identity{}, nil
	}))

	_, err := hub.Admit(context.Background(), "tok")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}
