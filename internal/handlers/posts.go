package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BorisDmv/vignettes/internal/filter"
	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

type PostsHandler struct {
	store store.Store
	now   func() time.Time
}

func NewPostsHandler(s store.Store) *PostsHandler {
	return &PostsHandler{store: s, now: time.Now}
}

type PageResponse struct {
	Posts      []models.Post `json:"posts"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// CommentRequest accepts either {"newComment": {...}} or a bare
// {"author", "content"} body.
type CommentRequest struct {
	NewComment *models.Comment `json:"newComment"`
	Author     string          `json:"author"`
	Content    string          `json:"content"`
}

// List returns every post, optionally narrowed by ?tag= and ?q=.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.FetchAll(r.Context())
	if err != nil {
		respondStoreError(w, err, "failed to retrieve posts")
		return
	}
	q := r.URL.Query()
	respondJSON(w, http.StatusOK, filter.Filter(posts, q.Get("tag"), q.Get("q")))
}

// Page serves the collection newest first, one slice per request.
func (h *PostsHandler) Page(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.FetchAll(r.Context())
	if err != nil {
		respondStoreError(w, err, "failed to retrieve posts")
		return
	}
	limit := parsePositiveInt(r.URL.Query().Get("limit"), filter.DefaultPageSize)
	page, next := filter.Paginate(filter.Newest(posts), r.URL.Query().Get("cursor"), limit)
	respondJSON(w, http.StatusOK, PageResponse{Posts: page, NextCursor: next})
}

func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	posts, err := h.store.FetchAll(r.Context())
	if err != nil {
		respondStoreError(w, err, "failed to load post")
		return
	}
	if p, ok := findPost(posts, id); ok {
		respondJSON(w, http.StatusOK, p)
		return
	}
	respondError(w, http.StatusNotFound, "Post not found.")
}

func findPost(posts []models.Post, id string) (models.Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func (h *PostsHandler) Tags(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.FetchAll(r.Context())
	if err != nil {
		respondStoreError(w, err, "failed to retrieve posts")
		return
	}
	respondJSON(w, http.StatusOK, filter.Tags(posts))
}

func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.PostInput
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.store.Create(r.Context(), req)
	if err != nil {
		respondStoreError(w, err, "Failed to create post.")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.PostPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	updated, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondStoreError(w, err, "Failed to update post.")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err, "Failed to delete post.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	author, content := req.Author, req.Content
	if req.NewComment != nil {
		author, content = req.NewComment.Author, req.NewComment.Content
	}
	comment := store.NewComment(author, content, h.now())
	if err := store.ValidateComment(comment); err != nil {
		respondStoreError(w, err, "Failed to add comment.")
		return
	}
	postID := chi.URLParam(r, "id")
	// Keep the id the client generated so it can find its own comment,
	// as long as it is new within the post.
	if req.NewComment != nil && req.NewComment.ID != "" {
		posts, err := h.store.FetchAll(r.Context())
		if err != nil {
			respondStoreError(w, err, "Failed to add comment.")
			return
		}
		post, ok := findPost(posts, postID)
		if !ok {
			respondError(w, http.StatusNotFound, "Post not found.")
			return
		}
		if _, taken := post.Comment(req.NewComment.ID); taken {
			respondError(w, http.StatusBadRequest, "Comment id already exists.")
			return
		}
		comment.ID = req.NewComment.ID
	}
	if err := h.store.AppendComment(r.Context(), postID, comment); err != nil {
		respondStoreError(w, err, "Failed to add comment.")
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (h *PostsHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	err := h.store.RemoveComment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "commentId"))
	if err != nil {
		respondStoreError(w, err, "Failed to delete comment.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
