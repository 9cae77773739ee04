package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", Migrate)
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice", " Alice@Example.com ", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "alice2", "alice@example.com", "hash")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestListUsersExcept(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var me *store.User
	for _, name := range []string{"charlie", "alice", "bob"} {
		u, err := s.CreateUser(ctx, name, name+"@example.com", "hash")
		require.NoError(t, err)
		if name == "bob" {
			me = u
		}
	}

	users, err := s.ListUsersExcept(ctx, me.ID)
	require.NoError(t, err)

	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"alice", "charlie"}, names)
}

func TestConversationAndPartners(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "bob@example.com", "hash")
	require.NoError(t, err)
	carol, err := s.CreateUser(ctx, "carol", "carol@example.com", "hash")
	require.NoError(t, err)

	send := func(from, to *store.User, text string) *store.Message {
		msg := &store.Message{SenderID: from.ID, ReceiverID: to.ID, Text: text}
		require.NoError(t, s.SaveMessage(ctx, msg))
		require.NotZero(t, msg.ID)
		return msg
	}

	send(alice, bob, "one")
	send(bob, alice, "two")
	third := send(alice, bob, "three")
	send(carol, bob, "unrelated")

	msgs, err := s.ListConversation(ctx, alice.ID, bob.ID, 50, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, "three", msgs[2].Text)

	older, err := s.ListConversation(ctx, bob.ID, alice.ID, 1, &third.ID)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "two", older[0].Text)

	partners, err := s.ListChatPartners(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, partners, 2)
	assert.Equal(t, "alice", partners[0].Username)
	assert.Equal(t, "carol", partners[1].Username)

	partners, err = s.ListChatPartners(ctx, carol.ID)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "bob", partners[0].Username)
}
