// Package state holds the client's copy of the post collection. The
// copy only ever changes by being replaced with a fresh backend read,
// and every mutation goes to the backend first.
package state

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

const refreshKey = "refresh"

type State struct {
	store store.Store

	mu      sync.RWMutex
	posts   []models.Post
	err     error
	loading int
	loaded  bool
	// started numbers each backend read; applied is the newest one whose
	// result reached the collection. Older reads finishing late are dropped.
	started uint64
	applied uint64

	// inflight admits one mutation at a time.
	inflight sync.Mutex
	group    singleflight.Group
	backOff  func() backoff.BackOff
	now      func() time.Time
}

type Option func(*State)

// WithBackOff replaces the retry policy used by Refresh.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(s *State) { s.backOff = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// DefaultBackOff retries a failed read twice, starting at 200ms.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, 2)
}

func New(s store.Store, opts ...Option) *State {
	st := &State{
		store:   s,
		posts:   []models.Post{},
		backOff: DefaultBackOff,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Posts returns a copy of the collection in backend order.
func (s *State) Posts() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = p.Clone()
	}
	return out
}

func (s *State) Post(id string) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Post{}, false
}

// Err is the error of the last refresh, nil once one succeeds.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Loading reports whether a backend read is in flight.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Loaded reports whether any refresh has succeeded yet.
func (s *State) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Refresh replaces the collection with what the backend reports. On
// failure the collection is kept and the error recorded. Concurrent
// calls share one read.
func (s *State) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do(refreshKey, func() (interface{}, error) {
		return nil, s.reload(ctx)
	})
	return err
}

// reload always starts a new read, so a mutation never settles for a
// snapshot taken before its write.
func (s *State) reload(ctx context.Context) error {
	s.mu.Lock()
	s.started++
	seq := s.started
	s.loading++
	s.mu.Unlock()

	posts, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if seq < s.applied {
		return err
	}
	s.applied = seq
	if err != nil {
		s.err = err
		return err
	}
	s.posts = posts
	s.err = nil
	s.loaded = true
	return nil
}

// fetch retries transport failures only; other errors will not change
// on a second attempt.
func (s *State) fetch(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	op := func() error {
		var err error
		posts, err = s.store.FetchAll(ctx)
		if err != nil && !errors.Is(err, store.ErrTransport) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("fetch posts failed, retrying in %s: %v", wait, err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(s.backOff(), ctx), notify); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// mutate runs one backend call and, when it succeeds, refreshes. A
// failed refresh after a successful call is recorded in Err but does
// not fail the mutation, since the backend change has happened.
func (s *State) mutate(ctx context.Context, call func() error) error {
	if !s.inflight.TryLock() {
		return store.ErrBusy
	}
	defer s.inflight.Unlock()

	if err := call(); err != nil {
		return err
	}
	if err := s.reload(ctx); err != nil {
		log.Printf("refresh after mutation: %v", err)
	}
	return nil
}

// Busy reports whether a mutation is in flight.
func (s *State) Busy() bool {
	if s.inflight.TryLock() {
		s.inflight.Unlock()
		return false
	}
	return true
}

func (s *State) CreatePost(ctx context.Context, in models.PostInput) (models.Post, error) {
	if err := store.ValidateInput(in); err != nil {
		return models.Post{}, err
	}
	var created models.Post
	err := s.mutate(ctx, func() error {
		var err error
		created, err = s.store.Create(ctx, in)
		return err
	})
	return created, err
}

func (s *State) EditPost(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	if err := store.ValidatePatch(patch); err != nil {
		return models.Post{}, err
	}
	var updated models.Post
	err := s.mutate(ctx, func() error {
		var err error
		updated, err = s.store.Update(ctx, id, patch)
		return err
	})
	return updated, err
}

func (s *State) RemovePost(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error {
		return s.store.Delete(ctx, id)
	})
}

func (s *State) AddComment(ctx context.Context, postID string, c models.Comment) error {
	if err := store.ValidateComment(c); err != nil {
		return err
	}
	return s.mutate(ctx, func() error {
		return s.store.AppendComment(ctx, postID, c)
	})
}

func (s *State) RemoveComment(ctx context.Context, postID, commentID string) error {
	return s.mutate(ctx, func() error {
		return s.store.RemoveComment(ctx, postID, commentID)
	})
}

// Now is the clock comments and drafts are stamped with.
func (s *State) Now() time.Time {
	return s.now()
}
