// Package comments adds and removes reader comments through the post
// state, asking for confirmation before a removal.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

var ErrCancelled = errors.New("cancelled")

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Always confirms without asking, for non-interactive callers.
var Always = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Target is the part of the post state the manager writes through.
type Target interface {
	AddComment(ctx context.Context, postID string, c models.Comment) error
	RemoveComment(ctx context.Context, postID, commentID string) error
	Now() time.Time
}

type Manager struct {
	target  Target
	confirm Confirmer
}

func NewManager(target Target, confirm Confirmer) *Manager {
	if confirm == nil {
		confirm = Always
	}
	return &Manager{target: target, confirm: confirm}
}

// Add builds a comment with a fresh id and today's date and appends it.
// Blank fields are rejected before anything is sent.
func (m *Manager) Add(ctx context.Context, postID, author, content string) (models.Comment, error) {
	if strings.TrimSpace(author) == "" || strings.TrimSpace(content) == "" {
		return models.Comment{}, fmt.Errorf("comment author and content required: %w", store.ErrValidation)
	}
	c := store.NewComment(author, content, m.target.Now())
	if err := m.target.AddComment(ctx, postID, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

const removePrompt = "Are you sure you want to delete this comment?"

// Remove deletes a comment once the user confirms.
func (m *Manager) Remove(ctx context.Context, postID, commentID string) error {
	ok, err := m.confirm.Confirm(ctx, removePrompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return m.target.RemoveComment(ctx, postID, commentID)
}
