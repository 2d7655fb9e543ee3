package rest

import (
	"context"
	"net/http"

	"github.com/BorisDmv/vignettes/internal/assistant"
)

type ContentRequest struct {
	Content string `json:"content"`
}

type HashtagsResponse struct {
	Hashtags []string `json:"hashtags"`
}

type TextResponse struct {
	Text string `json:"text"`
}

type ChatRequest struct {
	Question string `json:"question"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

// Assistant forwards assistant calls to the server, which holds the
// API key.
type Assistant struct {
	c *Client
}

var _ assistant.Assistant = Assistant{}

func (c *Client) Assistant() Assistant {
	return Assistant{c: c}
}

func (a Assistant) GenerateHashtags(ctx context.Context, content string) ([]string, error) {
	var resp HashtagsResponse
	if err := a.c.do(ctx, "generate hashtags", http.MethodPost, "/api/assistant/hashtags", ContentRequest{content}, &resp, http.StatusOK); err != nil {
		return nil, assistant.Unavailable("generate hashtags", err)
	}
	return resp.Hashtags, nil
}

func (a Assistant) CheckSpelling(ctx context.Context, content string) (string, error) {
	var resp TextResponse
	if err := a.c.do(ctx, "spellcheck", http.MethodPost, "/api/assistant/spellcheck", ContentRequest{content}, &resp, http.StatusOK); err != nil {
		return "", assistant.Unavailable("spellcheck", err)
	}
	return resp.Text, nil
}

// AskChatbot sends only the question. The server builds the post
// context and knows the blog title itself.
func (a Assistant) AskChatbot(ctx context.Context, question, _, _ string) (string, error) {
	var resp ChatResponse
	if err := a.c.do(ctx, "chatbot", http.MethodPost, "/api/assistant/chat", ChatRequest{question}, &resp, http.StatusOK); err != nil {
		return "", assistant.Unavailable("chatbot", err)
	}
	return resp.Answer, nil
}
