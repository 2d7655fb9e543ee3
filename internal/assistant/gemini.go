package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/BorisDmv/vignettes/internal/models"
)

const DefaultModel = "gemini-2.5-flash"

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	model    string
	generate generateFunc
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key: %w", ErrUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newGemini(model, client.Models.GenerateContent), nil
}

func newGemini(model string, generate generateFunc) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{model: model, generate: generate}
}

// New returns Gemini when a key is set and Disabled otherwise.
func New(ctx context.Context, apiKey, model string) Assistant {
	if apiKey == "" {
		log.Printf("API key is not set. AI features will be disabled.")
		return Disabled{}
	}
	g, err := NewGemini(ctx, apiKey, model)
	if err != nil {
		log.Printf("assistant disabled: %v", err)
		return Disabled{}
	}
	return g
}

func (g *Gemini) ask(ctx context.Context, op, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.generate(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		log.Printf("Error with %s: %v", op, err)
		return "", Unavailable(op, err)
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", Unavailable(op, errors.New("empty response"))
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

const hashtagPrompt = `Analyze the following blog post content and generate 5 relevant, concise hashtags. The content is about everyday life moments. Format the output as a JSON array of strings. For example: ["#mindfulness", "#morningcoffee", "#citylife"].

Content:
%s`

func (g *Gemini) GenerateHashtags(ctx context.Context, content string) ([]string, error) {
	text, err := g.ask(ctx, "hashtags", fmt.Sprintf(hashtagPrompt, content), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	})
	if err != nil {
		return nil, err
	}
	var tags []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &tags); err != nil {
		return nil, Unavailable("hashtags", fmt.Errorf("decode hashtags: %w", err))
	}
	return models.NormalizeHashtags(tags), nil
}

const spellcheckPrompt = `Please proofread the following text for any spelling and grammar errors. Return only the corrected text. Preserve the original line breaks and any markdown formatting. If the text is already perfect, return it unchanged.

Original Text:
---
%s
---
`

func (g *Gemini) CheckSpelling(ctx context.Context, content string) (string, error) {
	return g.ask(ctx, "spellcheck", fmt.Sprintf(spellcheckPrompt, content), nil)
}

const chatbotPrompt = `You are a helpful assistant for a blog named "%s". Your task is to answer the user's question based *only* on the provided blog post content. Do not use any external knowledge. If the answer cannot be found within the provided content, you must clearly state that you don't have enough information from the blog posts to answer.

Here is the blog content:
---
%s
---

User's Question: "%s"`

func (g *Gemini) AskChatbot(ctx context.Context, question, postContext, blogTitle string) (string, error) {
	return g.ask(ctx, "chatbot", fmt.Sprintf(chatbotPrompt, blogTitle, postContext, question), nil)
}
