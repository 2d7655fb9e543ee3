package state

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
	"github.com/BorisDmv/vignettes/internal/store/flatblob"
)

// fakeStore wraps a memory store and counts or sabotages calls.
type fakeStore struct {
	store.Store

	mu        sync.Mutex
	calls     int
	fetches   int
	fetchErrs []error
	mutateErr error
	block     chan struct{}
	entered   chan struct{}
	// holdFetch pauses the next FetchAll after it has read the backend.
	holdFetch chan struct{}
	fetched   chan struct{}
}

func newFake() *fakeStore {
	return &fakeStore{Store: flatblob.New(&flatblob.MemoryBlob{})}
}

func (f *fakeStore) hit() error {
	f.mu.Lock()
	f.calls++
	err := f.mutateErr
	block := f.block
	f.mu.Unlock()
	if block != nil {
		f.entered <- struct{}{}
		<-block
	}
	return err
}

func (f *fakeStore) FetchAll(ctx context.Context) ([]models.Post, error) {
	f.mu.Lock()
	f.fetches++
	var err error
	if len(f.fetchErrs) > 0 {
		err, f.fetchErrs = f.fetchErrs[0], f.fetchErrs[1:]
	}
	hold := f.holdFetch
	f.holdFetch = nil
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	posts, err := f.Store.FetchAll(ctx)
	if hold != nil {
		f.fetched <- struct{}{}
		<-hold
	}
	return posts, err
}

func (f *fakeStore) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	if err := f.hit(); err != nil {
		return models.Post{}, err
	}
	return f.Store.Create(ctx, in)
}

func (f *fakeStore) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	if err := f.hit(); err != nil {
		return models.Post{}, err
	}
	return f.Store.Update(ctx, id, patch)
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.Store.Delete(ctx, id)
}

func (f *fakeStore) AppendComment(ctx context.Context, postID string, c models.Comment) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.Store.AppendComment(ctx, postID, c)
}

func (f *fakeStore) RemoveComment(ctx context.Context, postID, commentID string) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.Store.RemoveComment(ctx, postID, commentID)
}

func noWait() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
}

func newState(f *fakeStore) *State {
	return New(f, WithBackOff(noWait))
}

func byID(posts []models.Post) []models.Post {
	out := append([]models.Post(nil), posts...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func TestRefreshMirrorsBackendAcrossOperations(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := newState(f)
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 60; i++ {
		posts := s.Posts()
		switch op := rnd.Intn(4); {
		case op == 0 || len(posts) == 0:
			_, err := s.CreatePost(ctx, models.PostInput{Title: fmt.Sprintf("post %d", i), Content: "c"})
			require.NoError(t, err)
		case op == 1:
			title := fmt.Sprintf("edited %d", i)
			_, err := s.EditPost(ctx, posts[rnd.Intn(len(posts))].ID, models.PostPatch{Title: &title})
			require.NoError(t, err)
		case op == 2:
			require.NoError(t, s.RemovePost(ctx, posts[rnd.Intn(len(posts))].ID))
		default:
			require.NoError(t, s.Refresh(ctx))
		}

		backend, err := f.Store.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, byID(backend), byID(s.Posts()), "step %d", i)
	}
}

func TestRefreshFailureKeepsCollection(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := newState(f)
	_, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c"})
	require.NoError(t, err)
	before := s.Posts()

	boom := store.Transport("fetch", errors.New("offline"))
	f.fetchErrs = []error{boom, boom, boom}
	err = s.Refresh(ctx)
	require.ErrorIs(t, err, store.ErrTransport)
	assert.ErrorIs(t, s.Err(), store.ErrTransport)
	assert.Equal(t, before, s.Posts())

	require.NoError(t, s.Refresh(ctx))
	assert.NoError(t, s.Err())
}

func TestRefreshRetriesTransportErrors(t *testing.T) {
	f := newFake()
	s := newState(f)
	boom := store.Transport("fetch", errors.New("reset"))
	f.fetchErrs = []error{boom, boom}

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 3, f.fetches)
	assert.True(t, s.Loaded())
}

func TestRefreshDoesNotRetryOtherErrors(t *testing.T) {
	f := newFake()
	s := newState(f)
	f.fetchErrs = []error{store.ErrNotFound}

	require.ErrorIs(t, s.Refresh(context.Background()), store.ErrNotFound)
	assert.Equal(t, 1, f.fetches)
	assert.False(t, s.Loaded())
}

func TestFailedMutationLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := newState(f)
	a, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c"})
	require.NoError(t, err)
	before := s.Posts()

	f.mutateErr = store.Transport("write", errors.New("down"))
	title := "B"
	_, err = s.CreatePost(ctx, models.PostInput{Title: "B", Content: "c"})
	assert.ErrorIs(t, err, store.ErrTransport)
	_, err = s.EditPost(ctx, a.ID, models.PostPatch{Title: &title})
	assert.ErrorIs(t, err, store.ErrTransport)
	assert.ErrorIs(t, s.RemovePost(ctx, a.ID), store.ErrTransport)
	assert.ErrorIs(t, s.AddComment(ctx, a.ID, store.NewComment("Sam", "hi", time.Now())), store.ErrTransport)
	assert.ErrorIs(t, s.RemoveComment(ctx, a.ID, "c1"), store.ErrTransport)

	assert.Equal(t, before, s.Posts())
}

func TestNotFoundMutationLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newState(newFake())
	_, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c"})
	require.NoError(t, err)
	before := s.Posts()

	assert.ErrorIs(t, s.RemovePost(ctx, "gone"), store.ErrNotFound)
	assert.Equal(t, before, s.Posts())
}

func TestDeleteRemovesExactlyThatPost(t *testing.T) {
	ctx := context.Background()
	s := newState(newFake())
	a, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c"})
	require.NoError(t, err)
	b, err := s.CreatePost(ctx, models.PostInput{Title: "B", Content: "c"})
	require.NoError(t, err)
	c, err := s.CreatePost(ctx, models.PostInput{Title: "C", Content: "c"})
	require.NoError(t, err)
	require.NoError(t, s.AddComment(ctx, c.ID, store.NewComment("Sam", "Nice!", time.Now())))

	others := map[string]models.Post{}
	for _, p := range s.Posts() {
		if p.ID != b.ID {
			others[p.ID] = p
		}
	}

	require.NoError(t, s.RemovePost(ctx, b.ID))

	_, ok := s.Post(b.ID)
	assert.False(t, ok)
	require.Len(t, s.Posts(), 2)
	for _, p := range s.Posts() {
		assert.Equal(t, others[p.ID], p)
	}
	got, ok := s.Post(a.ID)
	require.True(t, ok)
	assert.Empty(t, got.Comments)
}

func TestAddCommentAppendsAfterExisting(t *testing.T) {
	ctx := context.Background()
	s := newState(newFake())
	a, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c"})
	require.NoError(t, err)
	first := store.NewComment("Ann", "first", time.Now())
	require.NoError(t, s.AddComment(ctx, a.ID, first))

	second := store.NewComment("Sam", "Nice!", time.Now())
	require.NoError(t, s.AddComment(ctx, a.ID, second))

	got, ok := s.Post(a.ID)
	require.True(t, ok)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, first.ID, got.Comments[0].ID)
	assert.Equal(t, second.ID, got.Comments[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Sam", got.Comments[1].Author)
	assert.Equal(t, "Nice!", got.Comments[1].Content)
}

func TestValidationRejectsBeforeBackend(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := newState(f)

	_, err := s.CreatePost(ctx, models.PostInput{Title: "", Content: "x"})
	assert.ErrorIs(t, err, store.ErrValidation)
	blank := " "
	_, err = s.EditPost(ctx, "A", models.PostPatch{Content: &blank})
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.ErrorIs(t, s.AddComment(ctx, "A", models.Comment{Author: "", Content: "hi"}), store.ErrValidation)

	assert.Zero(t, f.calls)
	assert.Zero(t, f.fetches)
}

func TestSecondMutationWhileBusy(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	f.block = make(chan struct{})
	f.entered = make(chan struct{})
	s := newState(f)

	done := make(chan error)
	go func() {
		_, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c"})
		done <- err
	}()
	<-f.entered
	assert.True(t, s.Busy())

	_, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c"})
	assert.ErrorIs(t, err, store.ErrBusy)

	close(f.block)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())
	assert.Len(t, s.Posts(), 1)
}

func TestMutationSucceedsWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := newState(f)
	boom := store.Transport("fetch", errors.New("offline"))
	f.fetchErrs = []error{boom, boom, boom}

	created, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.ErrorIs(t, s.Err(), store.ErrTransport)
	assert.Empty(t, s.Posts())

	require.NoError(t, s.Refresh(ctx))
	assert.Len(t, s.Posts(), 1)
}

func TestPostsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newState(newFake())
	a, err := s.CreatePost(ctx, models.PostInput{Title: "A", Content: "c", Hashtags: []string{"#x"}})
	require.NoError(t, err)

	posts := s.Posts()
	posts[0].Title = "changed"
	posts[0].Hashtags[0] = "#y"

	got, ok := s.Post(a.ID)
	require.True(t, ok)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, []string{"#x"}, got.Hashtags)
}

func TestMutationRereadsWhileRefreshInFlight(t *testing.T) {
	f := newFake()
	s := newState(f)
	ctx := context.Background()

	release := make(chan struct{})
	f.holdFetch, f.fetched = release, make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.Refresh(ctx) }()
	<-f.fetched
	assert.True(t, s.Loading())

	created, err := s.CreatePost(ctx, models.PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.Len(t, s.Posts(), 1)
	assert.Equal(t, created.ID, s.Posts()[0].ID)

	// The older read finishes last and must not roll the collection back.
	close(release)
	require.NoError(t, <-done)
	assert.Len(t, s.Posts(), 1)
	assert.NoError(t, s.Err())
	assert.False(t, s.Loading())
}
