package store

import (
	"context"
	"errors"
	"time"

	"github.com/BorisDmv/vignettes/internal/models"
)

type timeoutStore struct {
	next Store
	d    time.Duration
}

// WithTimeout bounds every call. A call that runs out of time fails
// with ErrTransport.
func WithTimeout(next Store, d time.Duration) Store {
	if d <= 0 {
		return next
	}
	return &timeoutStore{next: next, d: d}
}

func (s *timeoutStore) wrap(op string, err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return Transport(op, err)
	}
	return err
}

func (s *timeoutStore) FetchAll(ctx context.Context) ([]models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	posts, err := s.next.FetchAll(ctx)
	return posts, s.wrap("fetch posts", err)
}

func (s *timeoutStore) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	p, err := s.next.Create(ctx, in)
	return p, s.wrap("create post", err)
}

func (s *timeoutStore) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	p, err := s.next.Update(ctx, id, patch)
	return p, s.wrap("update post", err)
}

func (s *timeoutStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.wrap("delete post", s.next.Delete(ctx, id))
}

func (s *timeoutStore) AppendComment(ctx context.Context, postID string, c models.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.wrap("append comment", s.next.AppendComment(ctx, postID, c))
}

func (s *timeoutStore) RemoveComment(ctx context.Context, postID, commentID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.wrap("remove comment", s.next.RemoveComment(ctx, postID, commentID))
}

// Unwrap exposes the wrapped backend so optional interfaces such as
// SchemaEnsurer stay reachable.
func (s *timeoutStore) Unwrap() Store { return s.next }
