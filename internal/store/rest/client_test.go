package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, store.ErrValidation},
		{http.StatusNotFound, store.ErrNotFound},
		{http.StatusConflict, store.ErrBusy},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusServiceUnavailable, assistant.ErrUnavailable},
		{http.StatusInternalServerError, store.ErrTransport},
		{http.StatusBadGateway, store.ErrTransport},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			err := New(srv.URL, srv.Client()).Delete(context.Background(), "x")
			require.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestUnreachableServerIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).FetchAll(context.Background())
	assert.ErrorIs(t, err, store.ErrTransport)
}

func TestMalformedReplyIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).FetchAll(context.Background())
	assert.ErrorIs(t, err, store.ErrTransport)
}

func TestTokenAndPaths(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", srv.Client())
	c.SetToken("abc")
	require.NoError(t, c.RemoveComment(context.Background(), "p 1", "c/2"))
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "/api/posts/p%201/comments/c%2F2", gotPath)
}

func TestValidatesBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	_, err := c.Create(context.Background(), models.PostInput{Title: "", Content: "c"})
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.ErrorIs(t, c.AppendComment(context.Background(), "p", models.Comment{Author: "Sam"}), store.ErrValidation)
	assert.False(t, called)
}
