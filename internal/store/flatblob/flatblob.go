// Package flatblob keeps the whole post collection as one JSON array
// under a single key. Every mutation reads everything, changes it and
// writes everything back.
package flatblob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

// Blob is one opaque value in some key-value medium.
type Blob interface {
	// Load returns nil, nil when nothing has been stored yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

type Store struct {
	blob Blob
	// mu serializes read-modify-write cycles from this process only.
	mu  sync.Mutex
	now func() time.Time
}

func New(blob Blob) *Store {
	return &Store{blob: blob, now: time.Now}
}

func (s *Store) load(ctx context.Context) ([]models.Post, error) {
	raw, err := s.blob.Load(ctx)
	if err != nil {
		return nil, store.Transport("load posts", err)
	}
	raw = bytes.TrimSpace(raw)
	// Fresh bins come back empty, as null or as {}.
	if len(raw) == 0 || raw[0] != '[' {
		return []models.Post{}, nil
	}
	var posts []models.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, store.Transport("decode posts", err)
	}
	for i := range posts {
		if posts[i].Hashtags == nil {
			posts[i].Hashtags = []string{}
		}
		if posts[i].Comments == nil {
			posts[i].Comments = []models.Comment{}
		}
	}
	return posts, nil
}

func (s *Store) save(ctx context.Context, posts []models.Post) error {
	raw, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	if err := s.blob.Save(ctx, raw); err != nil {
		return store.Transport("save posts", err)
	}
	return nil
}

func indexOf(posts []models.Post, id string) int {
	for i, p := range posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) FetchAll(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	if err := store.ValidateInput(in); err != nil {
		return models.Post{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return models.Post{}, err
	}
	p := store.NewPost(in, s.now())
	posts = append([]models.Post{p}, posts...)
	if err := s.save(ctx, posts); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

func (s *Store) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	if err := store.ValidatePatch(patch); err != nil {
		return models.Post{}, err
	}
	if patch.Hashtags != nil {
		tags := models.NormalizeHashtags(*patch.Hashtags)
		patch.Hashtags = &tags
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return models.Post{}, err
	}
	i := indexOf(posts, id)
	if i < 0 {
		return models.Post{}, store.NotFound("post", id)
	}
	posts[i].Apply(patch)
	if err := s.save(ctx, posts); err != nil {
		return models.Post{}, err
	}
	return posts[i], nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(posts, id)
	if i < 0 {
		return store.NotFound("post", id)
	}
	posts = append(posts[:i], posts[i+1:]...)
	return s.save(ctx, posts)
}

func (s *Store) AppendComment(ctx context.Context, postID string, c models.Comment) error {
	if err := store.ValidateComment(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(posts, postID)
	if i < 0 {
		return store.NotFound("post", postID)
	}
	posts[i].Comments = append(posts[i].Comments, c)
	return s.save(ctx, posts)
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(posts, postID)
	if i < 0 {
		return store.NotFound("post", postID)
	}
	if _, ok := posts[i].Comment(commentID); !ok {
		return store.NotFound("comment", commentID)
	}
	posts[i].Comments = models.WithoutComment(posts[i].Comments, commentID)
	return s.save(ctx, posts)
}
