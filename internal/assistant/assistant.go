// Package assistant wraps the language model used for hashtag
// suggestions, proofreading and the blog chatbot.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BorisDmv/vignettes/internal/models"
)

var ErrUnavailable = errors.New("assistant unavailable")

type Assistant interface {
	GenerateHashtags(ctx context.Context, content string) ([]string, error)
	CheckSpelling(ctx context.Context, content string) (string, error)
	// AskChatbot answers from postContext only, see BuildContext.
	AskChatbot(ctx context.Context, question, postContext, blogTitle string) (string, error)
}

// FallbackHashtags is what GenerateHashtags suggests with no model configured.
var FallbackHashtags = []string{"#lifestyle", "#inspiration"}

// Disabled stands in when no API key is configured.
type Disabled struct{}

func (Disabled) GenerateHashtags(context.Context, string) ([]string, error) {
	return append([]string(nil), FallbackHashtags...), nil
}

func (Disabled) CheckSpelling(context.Context, string) (string, error) {
	return "", fmt.Errorf("API key is not set, AI features are disabled: %w", ErrUnavailable)
}

func (Disabled) AskChatbot(context.Context, string, string, string) (string, error) {
	return "", fmt.Errorf("the chatbot is unavailable as the API key is not configured: %w", ErrUnavailable)
}

// BuildContext flattens posts into the text the chatbot may answer from.
func BuildContext(posts []models.Post) string {
	blocks := make([]string, 0, len(posts))
	for _, p := range posts {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nContent: %s", p.Title, p.Content))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// Unavailable wraps err so callers can match ErrUnavailable.
func Unavailable(op string, err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
