package store

import (
	"context"
	"fmt"
	"log"

	"github.com/BorisDmv/vignettes/internal/media"
	"github.com/BorisDmv/vignettes/internal/models"
)

type mediaStore struct {
	Store
	media media.Store
}

// WithMedia moves embedded data: URLs into m on create and update, and
// releases a post's media after it is deleted or replaced.
func WithMedia(next Store, m media.Store) Store {
	if m == nil {
		return next
	}
	return &mediaStore{Store: next, media: m}
}

func (s *mediaStore) offload(ctx context.Context, name, value string) (string, error) {
	if !media.IsDataURL(value) {
		return value, nil
	}
	data, contentType, err := media.Decode(value)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", name, err, ErrValidation)
	}
	if !s.media.Accepts(contentType) {
		return value, nil
	}
	ref, err := s.media.Put(ctx, name, contentType, data)
	if err != nil {
		return "", Transport("upload "+name, err)
	}
	return ref, nil
}

func (s *mediaStore) release(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		if ref == "" || !s.media.Owns(ref) {
			continue
		}
		if err := s.media.Delete(ctx, ref); err != nil {
			log.Printf("release media %s: %v", ref, err)
		}
	}
}

func (s *mediaStore) lookup(ctx context.Context, id string) (models.Post, bool) {
	posts, err := s.Store.FetchAll(ctx)
	if err != nil {
		log.Printf("media lookup for post %s: %v", id, err)
		return models.Post{}, false
	}
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func (s *mediaStore) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	if err := ValidateInput(in); err != nil {
		return models.Post{}, err
	}
	var err error
	if in.ImageURL, err = s.offload(ctx, "image", in.ImageURL); err != nil {
		return models.Post{}, err
	}
	if in.AudioURL, err = s.offload(ctx, "audio", in.AudioURL); err != nil {
		s.release(ctx, in.ImageURL)
		return models.Post{}, err
	}
	created, err := s.Store.Create(ctx, in)
	if err != nil {
		s.release(ctx, in.ImageURL, in.AudioURL)
		return models.Post{}, err
	}
	return created, nil
}

func (s *mediaStore) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	if patch.ImageURL == nil && patch.AudioURL == nil {
		return s.Store.Update(ctx, id, patch)
	}
	before, found := s.lookup(ctx, id)

	// fresh holds uploads made here, released again if the update fails.
	var stale, fresh []string
	if patch.ImageURL != nil {
		ref, err := s.offload(ctx, "image", *patch.ImageURL)
		if err != nil {
			return models.Post{}, err
		}
		if ref != *patch.ImageURL {
			fresh = append(fresh, ref)
		}
		patch.ImageURL = &ref
		if found && before.ImageURL != ref {
			stale = append(stale, before.ImageURL)
		}
	}
	if patch.AudioURL != nil {
		ref, err := s.offload(ctx, "audio", *patch.AudioURL)
		if err != nil {
			s.release(ctx, fresh...)
			return models.Post{}, err
		}
		if ref != *patch.AudioURL {
			fresh = append(fresh, ref)
		}
		patch.AudioURL = &ref
		if found && before.AudioURL != ref {
			stale = append(stale, before.AudioURL)
		}
	}
	updated, err := s.Store.Update(ctx, id, patch)
	if err != nil {
		s.release(ctx, fresh...)
		return models.Post{}, err
	}
	s.release(ctx, stale...)
	return updated, nil
}

func (s *mediaStore) Delete(ctx context.Context, id string) error {
	before, found := s.lookup(ctx, id)
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	if found {
		s.release(ctx, before.ImageURL, before.AudioURL)
	}
	return nil
}

func (s *mediaStore) Unwrap() Store { return s.Store }
