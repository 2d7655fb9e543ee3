package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "posts.json")
	b, err := Open(ctx, Options{Kind: File, PostsFile: path, Timeout: time.Second})
	require.NoError(t, err)
	defer b.Close(ctx)

	_, err = b.Store.Create(ctx, models.PostInput{Title: "A", Content: "c"})
	require.NoError(t, err)

	again, err := Open(ctx, Options{Kind: File, PostsFile: path})
	require.NoError(t, err)
	posts, err := again.Store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Nil(t, again.Media)
	assert.Nil(t, again.REST)
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(context.Background(), Options{Kind: "sqlite"})
	assert.EqualError(t, err, `unknown backend "sqlite"`)
}

func TestOpenRESTUsesServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"A","title":"Morning Coffee","author":"Author","date":"","content":"c","hashtags":["#life"],"comments":[]}]`))
	}))
	defer srv.Close()

	b, err := Open(context.Background(), Options{Kind: REST, ServerURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	require.NotNil(t, b.REST)

	posts, err := b.Store.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"#life"}, posts[0].Hashtags)
}

func TestOpenKVHTTPFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	b, err := Open(context.Background(), Options{Kind: KVHTTP, KVURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	_, err = b.Store.FetchAll(context.Background())
	assert.ErrorIs(t, err, store.ErrTransport)
}

func TestCloseRunsInReverse(t *testing.T) {
	var order []int
	b := &Backend{}
	b.onClose(func(context.Context) error { order = append(order, 1); return nil })
	b.onClose(func(context.Context) error { order = append(order, 2); return nil })
	require.NoError(t, b.Close(context.Background()))
	assert.Equal(t, []int{2, 1}, order)
}
