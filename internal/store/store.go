// Package store defines the contract every post backend satisfies and
// the error taxonomy shared by all of them.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BorisDmv/vignettes/internal/models"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("transport error")
	// ErrBusy rejects a second submission while the first is in flight.
	ErrBusy = errors.New("operation already in progress")
)

// Store is the adapter between the post state and a concrete backend.
// Callers must not rely on the order FetchAll returns.
type Store interface {
	FetchAll(ctx context.Context) ([]models.Post, error)
	Create(ctx context.Context, in models.PostInput) (models.Post, error)
	Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error)
	// Delete also releases media owned by the post, best effort.
	Delete(ctx context.Context, id string) error
	AppendComment(ctx context.Context, postID string, c models.Comment) error
	RemoveComment(ctx context.Context, postID, commentID string) error
}

// SchemaEnsurer is implemented by backends that need a one-time setup.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Transport wraps a backend failure so errors.Is(err, ErrTransport) holds.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func ValidateInput(in models.PostInput) error {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required: %w", strings.Join(missing, " and "), ErrValidation)
	}
	return nil
}

func ValidatePatch(patch models.PostPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return fmt.Errorf("title cannot be blank: %w", ErrValidation)
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return fmt.Errorf("content cannot be blank: %w", ErrValidation)
	}
	return nil
}

func ValidateComment(c models.Comment) error {
	if strings.TrimSpace(c.Author) == "" || strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("comment author and content required: %w", ErrValidation)
	}
	return nil
}

// NewID returns a time-ordered UUIDv7, so sorting ids approximates
// creation order without relying on clock resolution for uniqueness.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewPost stamps an input for backends that assign ids themselves.
func NewPost(in models.PostInput, now time.Time) models.Post {
	author := in.Author
	if strings.TrimSpace(author) == "" {
		author = "Author"
	}
	hashtags := models.NormalizeHashtags(in.Hashtags)
	return models.Post{
		ID:        NewID(),
		Title:     in.Title,
		Author:    author,
		Date:      models.PostDate(now),
		Content:   in.Content,
		ImageURL:  in.ImageURL,
		AudioURL:  in.AudioURL,
		Hashtags:  hashtags,
		Comments:  []models.Comment{},
		CreatedAt: now.UTC(),
	}
}

// NewComment builds a comment with a fresh id and display date.
func NewComment(author, content string, now time.Time) models.Comment {
	return models.Comment{
		ID:        NewID(),
		Author:    strings.TrimSpace(author),
		Content:   strings.TrimSpace(content),
		Date:      models.CommentDate(now),
		CreatedAt: now.UTC(),
	}
}

type unwrapper interface {
	Unwrap() Store
}

// SchemaOf finds a SchemaEnsurer underneath any decorators.
func SchemaOf(s Store) (SchemaEnsurer, bool) {
	for s != nil {
		if e, ok := s.(SchemaEnsurer); ok {
			return e, true
		}
		u, ok := s.(unwrapper)
		if !ok {
			return nil, false
		}
		s = u.Unwrap()
	}
	return nil, false
}
