package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/BorisDmv/vignettes/internal/models"
)

func reply(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

type recorder struct {
	model  string
	prompt string
	cfg    *genai.GenerateContentConfig
	resp   *genai.GenerateContentResponse
	err    error
}

func (r *recorder) generate(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	r.model = model
	r.prompt = contents[0].Parts[0].Text
	r.cfg = cfg
	return r.resp, r.err
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	var a Assistant = Disabled{}

	tags, err := a.GenerateHashtags(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, []string{"#lifestyle", "#inspiration"}, tags)

	_, err = a.CheckSpelling(ctx, "teh")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = a.AskChatbot(ctx, "q", "", "Vignettes")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	assert.IsType(t, Disabled{}, New(context.Background(), "", ""))
}

func TestGeminiHashtags(t *testing.T) {
	rec := &recorder{resp: reply(`["#coffee", "morning light", "#coffee"]`)}
	g := newGemini("", rec.generate)

	tags, err := g.GenerateHashtags(context.Background(), "A quiet cup before work.")
	require.NoError(t, err)
	assert.Equal(t, []string{"#coffee", "#morninglight"}, tags)
	assert.Equal(t, DefaultModel, rec.model)
	assert.Contains(t, rec.prompt, "A quiet cup before work.")
	require.NotNil(t, rec.cfg)
	assert.Equal(t, "application/json", rec.cfg.ResponseMIMEType)
	assert.Equal(t, genai.TypeArray, rec.cfg.ResponseSchema.Type)
}

func TestGeminiHashtagsBadJSON(t *testing.T) {
	rec := &recorder{resp: reply("not json")}
	_, err := newGemini("", rec.generate).GenerateHashtags(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeminiFailureIsUnavailable(t *testing.T) {
	rec := &recorder{err: errors.New("quota exceeded")}
	g := newGemini("gemini-test", rec.generate)

	_, err := g.CheckSpelling(context.Background(), "teh cat")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "gemini-test", rec.model)
}

func TestGeminiEmptyResponseIsUnavailable(t *testing.T) {
	rec := &recorder{resp: &genai.GenerateContentResponse{}}
	_, err := newGemini("", rec.generate).AskChatbot(context.Background(), "q", "ctx", "Vignettes")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeminiChatbotPrompt(t *testing.T) {
	rec := &recorder{resp: reply("They drink coffee.")}
	answer, err := newGemini("", rec.generate).AskChatbot(context.Background(), "What do they drink?", "Title: A\nContent: coffee", "Vignettes")
	require.NoError(t, err)
	assert.Equal(t, "They drink coffee.", answer)
	assert.Contains(t, rec.prompt, `a blog named "Vignettes"`)
	assert.Contains(t, rec.prompt, "Title: A\nContent: coffee")
	assert.Contains(t, rec.prompt, `User's Question: "What do they drink?"`)
}

func TestBuildContext(t *testing.T) {
	posts := []models.Post{
		{Title: "Morning Coffee", Content: "Warm."},
		{Title: "City Walk", Content: "Loud."},
	}
	assert.Equal(t, "Title: Morning Coffee\nContent: Warm.\n\n---\n\nTitle: City Walk\nContent: Loud.", BuildContext(posts))
	assert.Equal(t, "", BuildContext(nil))
}
