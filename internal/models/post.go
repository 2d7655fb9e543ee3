package models

import (
	"strings"
	"time"
)

type Comment struct {
	ID        string    `json:"id" bson:"id"`
	Author    string    `json:"author" bson:"author"`
	Content   string    `json:"content" bson:"content"`
	Date      string    `json:"date" bson:"date"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Content string `json:"content"`
	// ImageURL and AudioURL hold either a URL or an embedded data: URL.
	ImageURL  string    `json:"imageUrl,omitempty"`
	AudioURL  string    `json:"audioUrl,omitempty"`
	Hashtags  []string  `json:"hashtags"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// PostInput is what the editor produces for a new post. The backend
// assigns the identifier, date and an empty comment list.
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Author   string   `json:"author,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	AudioURL string   `json:"audioUrl,omitempty"`
	Hashtags []string `json:"hashtags"`
}

// PostPatch is a partial update. Nil fields are left untouched.
type PostPatch struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	ImageURL *string   `json:"imageUrl,omitempty"`
	AudioURL *string   `json:"audioUrl,omitempty"`
	Hashtags *[]string `json:"hashtags,omitempty"`
}

func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.ImageURL == nil && p.AudioURL == nil && p.Hashtags == nil
}

// Apply merges the patch into the post in place.
func (p *Post) Apply(patch PostPatch) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.AudioURL != nil {
		p.AudioURL = *patch.AudioURL
	}
	if patch.Hashtags != nil {
		p.Hashtags = append([]string(nil), (*patch.Hashtags)...)
	}
}

// Clone returns a copy that shares no slices with p.
func (p Post) Clone() Post {
	out := p
	out.Hashtags = append([]string{}, p.Hashtags...)
	out.Comments = append([]Comment{}, p.Comments...)
	return out
}

func (p Post) HasTag(tag string) bool {
	for _, t := range p.Hashtags {
		if t == tag {
			return true
		}
	}
	return false
}

func (p Post) Comment(id string) (Comment, bool) {
	for _, c := range p.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

// WithoutComment returns the comment list minus the given id, in order.
func WithoutComment(comments []Comment, id string) []Comment {
	out := make([]Comment, 0, len(comments))
	for _, c := range comments {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// NormalizeHashtag strips whitespace and guarantees a single leading '#'.
// It returns "" for a tag with no content.
func NormalizeHashtag(tag string) string {
	tag = strings.Join(strings.Fields(tag), "")
	tag = strings.TrimLeft(tag, "#")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

// ParseHashtags turns the editor's comma-separated field into a
// normalized, duplicate-free tag list.
func ParseHashtags(csv string) []string {
	return NormalizeHashtags(strings.Split(csv, ","))
}

func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := NormalizeHashtag(raw)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func PostDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

func CommentDate(t time.Time) string {
	return t.Format("Jan 2")
}
