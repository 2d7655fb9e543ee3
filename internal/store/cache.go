package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BorisDmv/vignettes/internal/models"
)

const DefaultCacheKey = "vignettes:posts:snapshot"

type cachedStore struct {
	Store
	client *redis.Client
	key    string
	ttl    time.Duration
}

// WithCache keeps the last FetchAll snapshot in Redis. Any successful
// mutation drops it, so the next read goes to the backend.
func WithCache(next Store, client *redis.Client, key string, ttl time.Duration) Store {
	if client == nil {
		return next
	}
	if key == "" {
		key = DefaultCacheKey
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cachedStore{Store: next, client: client, key: key, ttl: ttl}
}

func (s *cachedStore) FetchAll(ctx context.Context) ([]models.Post, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err == nil {
		var posts []models.Post
		if err := json.Unmarshal(val, &posts); err == nil {
			return posts, nil
		}
		log.Printf("discarding unreadable post snapshot: %v", err)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("failed to read post snapshot from redis: %v", err)
	}

	posts, err := s.Store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(posts); err == nil {
		if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
			log.Printf("failed to save post snapshot to redis: %v", err)
		}
	}
	return posts, nil
}

func (s *cachedStore) invalidate(ctx context.Context) {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		log.Printf("failed to drop post snapshot from redis: %v", err)
	}
}

func (s *cachedStore) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	p, err := s.Store.Create(ctx, in)
	if err == nil {
		s.invalidate(ctx)
	}
	return p, err
}

func (s *cachedStore) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	p, err := s.Store.Update(ctx, id, patch)
	if err == nil {
		s.invalidate(ctx)
	}
	return p, err
}

func (s *cachedStore) Delete(ctx context.Context, id string) error {
	err := s.Store.Delete(ctx, id)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *cachedStore) AppendComment(ctx context.Context, postID string, c models.Comment) error {
	err := s.Store.AppendComment(ctx, postID, c)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *cachedStore) RemoveComment(ctx context.Context, postID, commentID string) error {
	err := s.Store.RemoveComment(ctx, postID, commentID)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *cachedStore) Unwrap() Store { return s.Store }
