// Package backend assembles a store.Store from deployment options.
// Server and client both pick their backend here.
package backend

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BorisDmv/vignettes/internal/db"
	"github.com/BorisDmv/vignettes/internal/media"
	"github.com/BorisDmv/vignettes/internal/store"
	"github.com/BorisDmv/vignettes/internal/store/flatblob"
	"github.com/BorisDmv/vignettes/internal/store/mongostore"
	"github.com/BorisDmv/vignettes/internal/store/rest"
	"github.com/BorisDmv/vignettes/internal/transport"
)

const (
	Postgres = "postgres"
	Mongo    = "mongo"
	File     = "file"
	Memory   = "memory"
	Redis    = "redis"
	KVHTTP   = "kvhttp"
	KVRest   = "kvrest"
	REST     = "rest"
)

// Kinds lists every backend Open understands.
var Kinds = []string{Postgres, Mongo, File, Memory, Redis, KVHTTP, KVRest, REST}

type Options struct {
	Kind string

	DatabaseURL string
	MongoURL    string
	MongoDBName string
	RedisURL    string
	PostsFile   string
	KVURL       string
	KVRestURL   string
	KVRestToken string
	ServerURL   string

	ImgBBAPIKey   string
	CacheRedisURL string
	CacheTTL      time.Duration
	Timeout       time.Duration

	HTTPClient *http.Client
}

type Backend struct {
	Store store.Store
	// Media serves uploaded files when the backend keeps them itself.
	Media media.Reader
	// REST is set for the rest backend, for login and remote assistant calls.
	REST *rest.Client

	closers []func(context.Context) error
}

func (b *Backend) onClose(fn func(context.Context) error) {
	b.closers = append(b.closers, fn)
}

func (b *Backend) Close(ctx context.Context) error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func redisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Open connects the chosen backend and wraps it with media offloading,
// the snapshot cache and the call timeout as configured.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = transport.NewClient(opts.Timeout, false)
	}
	b := &Backend{}
	var base store.Store
	var objects media.Store

	switch opts.Kind {
	case Postgres:
		pg, err := db.NewStore(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect failed: %w", err)
		}
		b.onClose(func(context.Context) error { pg.Close(); return nil })
		base = pg
	case Mongo:
		m, err := mongostore.Connect(ctx, opts.MongoURL, opts.MongoDBName)
		if err != nil {
			return nil, err
		}
		b.onClose(m.Close)
		bucket, err := media.NewGridFS(m.Database())
		if err != nil {
			_ = b.Close(ctx)
			return nil, err
		}
		base, objects, b.Media = m, bucket, bucket
	case File:
		base = flatblob.New(&flatblob.FileBlob{Path: opts.PostsFile})
	case Memory:
		base = flatblob.New(&flatblob.MemoryBlob{})
	case Redis:
		client, err := redisClient(opts.RedisURL)
		if err != nil {
			return nil, err
		}
		b.onClose(func(context.Context) error { return client.Close() })
		base = flatblob.New(&flatblob.RedisBlob{Client: client, Key: flatblob.DefaultKey})
	case KVHTTP:
		base = flatblob.New(&flatblob.HTTPBlob{URL: opts.KVURL, Client: httpClient})
	case KVRest:
		base = flatblob.New(&flatblob.KVRestBlob{URL: opts.KVRestURL, Token: opts.KVRestToken, Key: flatblob.DefaultKey, Client: httpClient})
	case REST:
		b.REST = rest.New(opts.ServerURL, httpClient)
		// The server applies its own media, cache and timeout policy.
		b.Store = store.WithTimeout(b.REST, opts.Timeout)
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Kind)
	}

	if objects == nil && opts.ImgBBAPIKey != "" {
		objects = &media.ImgBB{APIKey: opts.ImgBBAPIKey, Client: httpClient}
	}
	s := store.WithMedia(base, objects)

	if opts.CacheRedisURL != "" {
		client, err := redisClient(opts.CacheRedisURL)
		if err != nil {
			_ = b.Close(ctx)
			return nil, err
		}
		b.onClose(func(context.Context) error { return client.Close() })
		s = store.WithCache(s, client, store.DefaultCacheKey, opts.CacheTTL)
		log.Printf("caching post snapshots in redis for %s", opts.CacheTTL)
	}

	b.Store = store.WithTimeout(s, opts.Timeout)
	return b, nil
}
