// Package rest is the store backend that talks to a vignettes server
// over its /api routes.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

var ErrUnauthorized = errors.New("unauthorized")

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusError maps a response status back onto the store sentinels.
func statusError(op string, resp *http.Response) error {
	var body errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	var kind error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = store.ErrValidation
	case http.StatusNotFound:
		kind = store.ErrNotFound
	case http.StatusConflict:
		kind = store.ErrBusy
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrUnauthorized
	case http.StatusServiceUnavailable:
		kind = assistant.ErrUnavailable
	default:
		kind = store.ErrTransport
	}
	return fmt.Errorf("%s: %d %s: %w", op, resp.StatusCode, body.Error, kind)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}, want int) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return store.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return store.Transport(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func postPath(id string, rest ...string) string {
	parts := append([]string{"/api/posts", url.PathEscape(id)}, rest...)
	return strings.Join(parts, "/")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges the author's credentials for a token and keeps it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp loginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/api/login", loginRequest{username, password}, &resp, http.StatusOK); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *Client) FetchAll(ctx context.Context) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	if err := c.do(ctx, "fetch posts", http.MethodGet, "/api/posts", nil, &posts, http.StatusOK); err != nil {
		return nil, err
	}
	return posts, nil
}

type PageResponse struct {
	Posts      []models.Post `json:"posts"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// Page reads one slice of posts, newest first. An empty cursor starts
// from the newest post.
func (c *Client) Page(ctx context.Context, cursor string, limit int) (PageResponse, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/posts/page"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var page PageResponse
	err := c.do(ctx, "fetch page", http.MethodGet, path, nil, &page, http.StatusOK)
	return page, err
}

func (c *Client) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	if err := store.ValidateInput(in); err != nil {
		return models.Post{}, err
	}
	var created models.Post
	err := c.do(ctx, "create post", http.MethodPost, "/api/posts", in, &created, http.StatusCreated)
	return created, err
}

func (c *Client) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	if err := store.ValidatePatch(patch); err != nil {
		return models.Post{}, err
	}
	var updated models.Post
	err := c.do(ctx, "update post", http.MethodPut, postPath(id), patch, &updated, http.StatusOK)
	return updated, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete post", http.MethodDelete, postPath(id), nil, nil, http.StatusNoContent)
}

type commentRequest struct {
	NewComment models.Comment `json:"newComment"`
}

func (c *Client) AppendComment(ctx context.Context, postID string, comment models.Comment) error {
	if err := store.ValidateComment(comment); err != nil {
		return err
	}
	return c.do(ctx, "append comment", http.MethodPost, postPath(postID, "comments"), commentRequest{comment}, nil, http.StatusCreated)
}

func (c *Client) RemoveComment(ctx context.Context, postID, commentID string) error {
	return c.do(ctx, "remove comment", http.MethodDelete, postPath(postID, "comments", url.PathEscape(commentID)), nil, nil, http.StatusNoContent)
}
