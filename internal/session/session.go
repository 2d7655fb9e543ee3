// Package session is the client controller: it ties the post state,
// navigation, filtering, comments, settings and the assistant together
// behind the actions a reader or the author can take.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/comments"
	"github.com/BorisDmv/vignettes/internal/filter"
	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/nav"
	"github.com/BorisDmv/vignettes/internal/settings"
	"github.com/BorisDmv/vignettes/internal/state"
	"github.com/BorisDmv/vignettes/internal/store"
)

var (
	ErrNotAuthor   = errors.New("log in as the author first")
	ErrBadLogin    = errors.New("invalid username or password")
	ErrNoSelection = errors.New("no post selected")
	ErrNotAnEditor = errors.New("not editing a post")
)

const deletePostQuery = "Are you sure you want to delete this post?"

// RemoteLogin signs in to a backend that enforces its own auth.
type RemoteLogin func(ctx context.Context, username, password string) error

// Draft is the editor's form. Hashtags is the comma separated field.
type Draft struct {
	Title    string
	Content  string
	ImageURL string
	AudioURL string
	Hashtags string
}

type Session struct {
	State     *state.State
	Nav       *nav.Navigator
	Comments  *comments.Manager
	Settings  *settings.Store
	Assistant assistant.Assistant

	confirm comments.Confirmer
	remote  RemoteLogin
	author  bool
}

type Option func(*Session)

func WithRemoteLogin(fn RemoteLogin) Option {
	return func(s *Session) { s.remote = fn }
}

func New(st *state.State, set *settings.Store, a assistant.Assistant, confirm comments.Confirmer, opts ...Option) *Session {
	if a == nil {
		a = assistant.Disabled{}
	}
	if confirm == nil {
		confirm = comments.Always
	}
	s := &Session{
		State:     st,
		Nav:       nav.New(),
		Comments:  comments.NewManager(st, confirm),
		Settings:  set,
		Assistant: a,
		confirm:   confirm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login unlocks the author's actions. The local pair is checked first;
// a remote backend then gets the same credentials.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if !s.Settings.Get().CheckCredentials(username, password) {
		return ErrBadLogin
	}
	if s.remote != nil {
		if err := s.remote(ctx, username, password); err != nil {
			return fmt.Errorf("remote login: %w", err)
		}
	}
	s.author = true
	return nil
}

func (s *Session) Logout() { s.author = false }

func (s *Session) IsAuthor() bool { return s.author }

// Displayed is the list screen's content: the collection narrowed by
// the current tag and query.
func (s *Session) Displayed() []models.Post {
	return filter.Apply(s.State.Posts(), s.Nav.Criteria())
}

func (s *Session) Tags() []filter.TagCount {
	return filter.Tags(s.State.Posts())
}

// Current is the selected post as last read from the backend.
func (s *Session) Current() (models.Post, bool) {
	id := s.Nav.Selected()
	if id == "" {
		return models.Post{}, false
	}
	return s.State.Post(id)
}

// Draft prefills the editor: empty when creating, the selected post
// when editing.
func (s *Session) Draft() Draft {
	if s.Nav.Screen() != nav.Editing {
		return Draft{}
	}
	p, ok := s.Current()
	if !ok {
		return Draft{}
	}
	return Draft{
		Title:    p.Title,
		Content:  p.Content,
		ImageURL: p.ImageURL,
		AudioURL: p.AudioURL,
		Hashtags: strings.Join(p.Hashtags, ", "),
	}
}

// Save submits the editor. On success the saved post is shown; on
// failure the editor stays open and the error is returned.
func (s *Session) Save(ctx context.Context, d Draft) (models.Post, error) {
	if !s.author {
		return models.Post{}, ErrNotAuthor
	}
	tags := models.ParseHashtags(d.Hashtags)

	var (
		saved models.Post
		err   error
	)
	switch s.Nav.Screen() {
	case nav.Creating:
		saved, err = s.State.CreatePost(ctx, models.PostInput{
			Title:    d.Title,
			Content:  d.Content,
			Author:   s.Settings.Get().AuthorName,
			ImageURL: d.ImageURL,
			AudioURL: d.AudioURL,
			Hashtags: tags,
		})
	case nav.Editing:
		if err := store.ValidateInput(models.PostInput{Title: d.Title, Content: d.Content}); err != nil {
			return models.Post{}, err
		}
		saved, err = s.State.EditPost(ctx, s.Nav.Selected(), models.PostPatch{
			Title:    &d.Title,
			Content:  &d.Content,
			ImageURL: &d.ImageURL,
			AudioURL: &d.AudioURL,
			Hashtags: &tags,
		})
	default:
		return models.Post{}, ErrNotAnEditor
	}
	if err != nil {
		return models.Post{}, err
	}
	if err := s.Nav.Saved(saved.ID); err != nil {
		return models.Post{}, err
	}
	return saved, nil
}

// DeleteCurrent removes the viewed post after confirmation and returns
// to the list.
func (s *Session) DeleteCurrent(ctx context.Context) error {
	if !s.author {
		return ErrNotAuthor
	}
	id := s.Nav.Selected()
	if s.Nav.Screen() != nav.ViewingPost || id == "" {
		return ErrNoSelection
	}
	ok, err := s.confirm.Confirm(ctx, deletePostQuery)
	if err != nil {
		return err
	}
	if !ok {
		return comments.ErrCancelled
	}
	if err := s.State.RemovePost(ctx, id); err != nil {
		return err
	}
	s.Nav.Deleted()
	return nil
}

// Comment adds a reader comment to the viewed post.
func (s *Session) Comment(ctx context.Context, author, content string) (models.Comment, error) {
	id := s.Nav.Selected()
	if id == "" {
		return models.Comment{}, ErrNoSelection
	}
	return s.Comments.Add(ctx, id, author, content)
}

// RemoveComment is author-only and asks for confirmation.
func (s *Session) RemoveComment(ctx context.Context, commentID string) error {
	if !s.author {
		return ErrNotAuthor
	}
	id := s.Nav.Selected()
	if id == "" {
		return ErrNoSelection
	}
	return s.Comments.Remove(ctx, id, commentID)
}

// Ask puts a reader's question to the chatbot over every post.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question is empty: %w", store.ErrValidation)
	}
	postContext := assistant.BuildContext(s.State.Posts())
	return s.Assistant.AskChatbot(ctx, question, postContext, s.Settings.Get().BlogTitle)
}

// SuggestHashtags returns the assistant's tags merged after the ones
// already in the draft, as the editor's hashtag field.
func (s *Session) SuggestHashtags(ctx context.Context, d Draft) (string, error) {
	if strings.TrimSpace(d.Content) == "" {
		return d.Hashtags, fmt.Errorf("write some content first: %w", store.ErrValidation)
	}
	suggested, err := s.Assistant.GenerateHashtags(ctx, d.Content)
	if err != nil {
		return d.Hashtags, err
	}
	merged := models.NormalizeHashtags(append(models.ParseHashtags(d.Hashtags), suggested...))
	return strings.Join(merged, ", "), nil
}

func (s *Session) CheckSpelling(ctx context.Context, d Draft) (string, error) {
	if strings.TrimSpace(d.Content) == "" {
		return d.Content, fmt.Errorf("write some content first: %w", store.ErrValidation)
	}
	return s.Assistant.CheckSpelling(ctx, d.Content)
}
