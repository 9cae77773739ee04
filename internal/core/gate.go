package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Authenticator verifies a bearer credential and resolves the identity behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (Identity, error)
}

// Gate decides whether an inbound connection attempt is admitted.
// It never touches the registry.
type Gate struct {
	auth    Authenticator
	timeout time.Duration
	buffer  int
	log     *zerolog.Logger
}

// NewGate builds a handshake gate. A zero timeout leaves the caller's context as is.
func NewGate(auth Authenticator, timeout time.Duration, buffer int, logger *zerolog.Logger) *Gate {
	return &Gate{auth: auth, timeout: timeout, buffer: buffer, log: logger}
}

// Admit authenticates credential and returns a fresh, unregistered client handle.
// Every failure is an *AuthError.
func (g *Gate) Admit(ctx context.Context, credential string) (*Client, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, &AuthError{Reason: "missing credential", Err: ErrMissingCredential}
	}
	if g.auth == nil {
		return nil, &AuthError{Reason: "no authenticator configured"}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	identity, err := g.auth.Authenticate(ctx, credential)
	if err != nil {
		reason := "invalid credential"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "authentication timed out"
		}
		g.log.Debug().Err(err).Str("reason", reason).Msg("handshake rejected")
		return nil, &AuthError{Reason: reason, Err: err}
	}
	if identity.UserID == "" {
		return nil, &AuthError{Reason: "empty identity"}
	}

	return NewClient(identity, g.buffer), nil
}
