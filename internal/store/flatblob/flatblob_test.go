package flatblob

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
	"github.com/BorisDmv/vignettes/internal/store/storetest"
)

func TestMemoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(&MemoryBlob{})
	})
}

func TestFileContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(&FileBlob{Path: filepath.Join(t.TempDir(), "data", "posts.json")})
	})
}

func TestRedisContract(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	storetest.Run(t, func(t *testing.T) store.Store {
		key := "vignettes-test:" + store.NewID()
		t.Cleanup(func() { client.Del(context.Background(), key) })
		return New(&RedisBlob{Client: client, Key: key})
	})
}

// binServer imitates a kvdb/npoint bin.
type binServer struct {
	mu    sync.Mutex
	value []byte
	fail  bool
}

func (b *binServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if b.value == nil {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(b.value)
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		b.value = body
	}
}

func TestHTTPBlobContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		srv := httptest.NewServer(&binServer{})
		t.Cleanup(srv.Close)
		return New(&HTTPBlob{URL: srv.URL, Client: srv.Client()})
	})
}

func TestHTTPBlobFailureIsTransport(t *testing.T) {
	bin := &binServer{fail: true}
	srv := httptest.NewServer(bin)
	defer srv.Close()

	s := New(&HTTPBlob{URL: srv.URL, Client: srv.Client()})
	_, err := s.FetchAll(context.Background())
	assert.ErrorIs(t, err, store.ErrTransport)

	_, err = s.Create(context.Background(), models.PostInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, store.ErrTransport)
}

func TestEmptyObjectBinReadsAsNoPosts(t *testing.T) {
	bin := &binServer{value: []byte(`{}`)}
	srv := httptest.NewServer(bin)
	defer srv.Close()

	posts, err := New(&HTTPBlob{URL: srv.URL, Client: srv.Client()}).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestMalformedBinIsTransport(t *testing.T) {
	bin := &binServer{value: []byte(`[{"id": 1`)}
	srv := httptest.NewServer(bin)
	defer srv.Close()

	_, err := New(&HTTPBlob{URL: srv.URL, Client: srv.Client()}).FetchAll(context.Background())
	assert.ErrorIs(t, err, store.ErrTransport)
}

// kvServer imitates the Vercel KV REST API.
type kvServer struct {
	mu     sync.Mutex
	values map[string]string
}

func (k *kvServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer token" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	switch {
	case strings.HasPrefix(r.URL.Path, "/get/"):
		key := strings.TrimPrefix(r.URL.Path, "/get/")
		var result interface{}
		if v, ok := k.values[key]; ok {
			result = v
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": result})
	case strings.HasPrefix(r.URL.Path, "/set/"):
		body, _ := io.ReadAll(r.Body)
		k.values[strings.TrimPrefix(r.URL.Path, "/set/")] = string(body)
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "OK"})
	default:
		http.NotFound(w, r)
	}
}

func TestKVRestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		srv := httptest.NewServer(&kvServer{values: map[string]string{}})
		t.Cleanup(srv.Close)
		return New(&KVRestBlob{URL: srv.URL, Token: "token", Key: DefaultKey, Client: srv.Client()})
	})
}

func TestKVRestBadToken(t *testing.T) {
	srv := httptest.NewServer(&kvServer{values: map[string]string{}})
	defer srv.Close()

	s := New(&KVRestBlob{URL: srv.URL, Token: "wrong", Key: DefaultKey, Client: srv.Client()})
	_, err := s.FetchAll(context.Background())
	assert.ErrorIs(t, err, store.ErrTransport)
}

func TestCreatePrependsNewestFirst(t *testing.T) {
	s := New(&MemoryBlob{})
	ctx := context.Background()
	first, err := s.Create(ctx, models.PostInput{Title: "first", Content: "c"})
	require.NoError(t, err)
	second, err := s.Create(ctx, models.PostInput{Title: "second", Content: "c"})
	require.NoError(t, err)

	posts, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
}

func TestRemoveMissingComment(t *testing.T) {
	s := New(&MemoryBlob{})
	ctx := context.Background()
	p, err := s.Create(ctx, models.PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.ErrorIs(t, s.RemoveComment(ctx, p.ID, "nope"), store.ErrNotFound)
}
