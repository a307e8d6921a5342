package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndHistory(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	id, err := s.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	turns, err := s.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = s.AppendTurn(ctx, id, "first question", "first answer")
	require.NoError(t, err)
	_, err = s.AppendTurn(ctx, id, "second question", "second answer")
	require.NoError(t, err)

	turns, err = s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first question", turns[0].UserQuery)
	assert.Equal(t, "first answer", turns[0].SystemResponse)
	assert.Equal(t, "second question", turns[1].UserQuery)
	assert.False(t, turns[0].CreatedAt.After(turns[1].CreatedAt))
}

func TestAppendTurn_UnknownSession(t *testing.T) {
	s := openStore(t)

	_, err := s.AppendTurn(context.Background(), "no-such-session", "q", "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHistory_IsolatedPerSession(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	first, err := s.Create(ctx)
	require.NoError(t, err)
	second, err := s.Create(ctx)
	require.NoError(t, err)

	_, err = s.AppendTurn(ctx, first, "q1", "a1")
	require.NoError(t, err)

	turns, err := s.History(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	s1, err := Open(path)
	require.NoError(t, err)
	id, err := s1.Create(ctx)
	require.NoError(t, err)
	_, err = s1.AppendTurn(ctx, id, "q", "a")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	turns, err := s2.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "q", turns[0].UserQuery)
}
