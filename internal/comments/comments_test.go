package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/state"
	"github.com/BorisDmv/vignettes/internal/store"
	"github.com/BorisDmv/vignettes/internal/store/flatblob"
)

// countingStore records how many writes reach the backend.
type countingStore struct {
	store.Store
	writes int
}

func (c *countingStore) AppendComment(ctx context.Context, postID string, cm models.Comment) error {
	c.writes++
	return c.Store.AppendComment(ctx, postID, cm)
}

func (c *countingStore) RemoveComment(ctx context.Context, postID, commentID string) error {
	c.writes++
	return c.Store.RemoveComment(ctx, postID, commentID)
}

func setup(t *testing.T, confirm Confirmer) (*Manager, *state.State, *countingStore, models.Post) {
	backend := &countingStore{Store: flatblob.New(&flatblob.MemoryBlob{})}
	clock := func() time.Time { return time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC) }
	st := state.New(backend, state.WithClock(clock), state.WithBackOff(func() backoff.BackOff { return &backoff.StopBackOff{} }))
	p, err := st.CreatePost(context.Background(), models.PostInput{Title: "A", Content: "c"})
	require.NoError(t, err)
	return NewManager(st, confirm), st, backend, p
}

func TestAddAppendsFreshComment(t *testing.T) {
	m, st, _, p := setup(t, nil)
	ctx := context.Background()

	first, err := m.Add(ctx, p.ID, "Ann", "first")
	require.NoError(t, err)
	c, err := m.Add(ctx, p.ID, "  Sam ", "Nice!")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.NotEqual(t, first.ID, c.ID)
	assert.Equal(t, "Jun 3", c.Date)

	got, ok := st.Post(p.ID)
	require.True(t, ok)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, c.ID, got.Comments[1].ID)
	assert.Equal(t, "Sam", got.Comments[1].Author)
}

func TestAddRejectsBlankBeforeBackend(t *testing.T) {
	m, _, backend, p := setup(t, nil)
	_, err := m.Add(context.Background(), p.ID, " ", "hi")
	assert.ErrorIs(t, err, store.ErrValidation)
	_, err = m.Add(context.Background(), p.ID, "Sam", "")
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.Zero(t, backend.writes)
}

func TestRemoveNeedsConfirmation(t *testing.T) {
	answer := false
	var asked string
	confirm := ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		asked = prompt
		return answer, nil
	})
	m, st, backend, p := setup(t, confirm)
	ctx := context.Background()
	c, err := m.Add(ctx, p.ID, "Sam", "Nice!")
	require.NoError(t, err)
	writes := backend.writes

	assert.ErrorIs(t, m.Remove(ctx, p.ID, c.ID), ErrCancelled)
	assert.Equal(t, writes, backend.writes)
	assert.Contains(t, asked, "delete this comment")

	answer = true
	require.NoError(t, m.Remove(ctx, p.ID, c.ID))
	got, _ := st.Post(p.ID)
	assert.Empty(t, got.Comments)
}

func TestRemoveConfirmError(t *testing.T) {
	boom := errors.New("no terminal")
	m, _, backend, p := setup(t, ConfirmFunc(func(context.Context, string) (bool, error) { return false, boom }))
	assert.ErrorIs(t, m.Remove(context.Background(), p.ID, "c"), boom)
	assert.Zero(t, backend.writes)
}
