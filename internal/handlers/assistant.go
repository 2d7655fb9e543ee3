package handlers

import (
	"net/http"
	"strings"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/store"
)

type AssistantHandler struct {
	assistant assistant.Assistant
	store     store.Store
	blogTitle string
}

func NewAssistantHandler(a assistant.Assistant, s store.Store, blogTitle string) *AssistantHandler {
	return &AssistantHandler{assistant: a, store: s, blogTitle: blogTitle}
}

type ContentRequest struct {
	Content string `json:"content"`
}

type ChatRequest struct {
	Question string `json:"question"`
}

func (h *AssistantHandler) content(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req ContentRequest
	if !decodeBody(w, r, &req) {
		return "", false
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return "", false
	}
	return req.Content, true
}

func (h *AssistantHandler) Hashtags(w http.ResponseWriter, r *http.Request) {
	content, ok := h.content(w, r)
	if !ok {
		return
	}
	tags, err := h.assistant.GenerateHashtags(r.Context(), content)
	if err != nil {
		respondStoreError(w, err, "failed to generate hashtags")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"hashtags": tags})
}

func (h *AssistantHandler) Spellcheck(w http.ResponseWriter, r *http.Request) {
	content, ok := h.content(w, r)
	if !ok {
		return
	}
	text, err := h.assistant.CheckSpelling(r.Context(), content)
	if err != nil {
		respondStoreError(w, err, "Sorry, I encountered an error while checking the text.")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Chat answers a reader's question from the blog's own posts.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	posts, err := h.store.FetchAll(r.Context())
	if err != nil {
		respondStoreError(w, err, "failed to retrieve posts")
		return
	}
	answer, err := h.assistant.AskChatbot(r.Context(), req.Question, assistant.BuildContext(posts), h.blogTitle)
	if err != nil {
		respondStoreError(w, err, "Sorry, I encountered an error while trying to answer your question.")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
