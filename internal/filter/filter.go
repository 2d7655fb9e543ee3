// Package filter derives the displayed posts from the full collection.
// Nothing here mutates its input.
package filter

import (
	"sort"
	"strings"

	"github.com/BorisDmv/vignettes/internal/models"
)

// Criteria selects posts. An empty Tag or a blank Query matches everything.
type Criteria struct {
	Tag   string
	Query string
}

func (c Criteria) Match(p models.Post) bool {
	if c.Tag != "" && !p.HasTag(c.Tag) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(c.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Content), q)
}

// Apply keeps the posts matching both the tag and the query, in their
// original order. The result never aliases posts.
func Apply(posts []models.Post, c Criteria) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Filter is Apply with the two inputs spelled out.
func Filter(posts []models.Post, tag, query string) []models.Post {
	return Apply(posts, Criteria{Tag: tag, Query: query})
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Tags counts every hashtag in the collection, most used first and
// alphabetical among equals.
func Tags(posts []models.Post) []TagCount {
	counts := make(map[string]int)
	for _, p := range posts {
		for _, t := range p.Hashtags {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Newest returns a copy of posts ordered newest first by creation time,
// ties broken by id, whatever order the backend returned them in.
func Newest(posts []models.Post) []models.Post {
	out := append([]models.Post{}, posts...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Paginate returns up to limit posts, in the given order, starting after
// the post whose id is cursor, and the cursor for the following page
// ("" on the last one).
// An unknown cursor yields an empty page.
func Paginate(posts []models.Post, cursor string, limit int) ([]models.Post, string) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	start := 0
	if cursor != "" {
		start = -1
		for i, p := range posts {
			if p.ID == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return []models.Post{}, ""
		}
	}
	end := start + limit
	if end >= len(posts) {
		return append([]models.Post{}, posts[start:]...), ""
	}
	page := append([]models.Post{}, posts[start:end]...)
	return page, page[len(page)-1].ID
}
