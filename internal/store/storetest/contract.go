// Package storetest holds the behaviour every store.Store must show,
// runnable against any backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

// ContractSuite runs the adapter contract. NewStore must return an
// empty store for every test.
type ContractSuite struct {
	suite.Suite
	NewStore func(t *testing.T) store.Store

	ctx context.Context
	s   store.Store
}

func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	suite.Run(t, &ContractSuite{NewStore: newStore})
}

func (cs *ContractSuite) SetupTest() {
	cs.ctx = context.Background()
	cs.s = cs.NewStore(cs.T())
}

func (cs *ContractSuite) create(title string, tags ...string) models.Post {
	p, err := cs.s.Create(cs.ctx, models.PostInput{
		Title:    title,
		Content:  title + " content",
		Author:   "Author",
		Hashtags: tags,
	})
	cs.Require().NoError(err)
	return p
}

func (cs *ContractSuite) find(id string) (models.Post, bool) {
	posts, err := cs.s.FetchAll(cs.ctx)
	cs.Require().NoError(err)
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func (cs *ContractSuite) TestEmptyStoreFetchesNothing() {
	posts, err := cs.s.FetchAll(cs.ctx)
	cs.Require().NoError(err)
	cs.Empty(posts)
}

func (cs *ContractSuite) TestCreateAssignsIdentity() {
	p := cs.create("Morning Coffee", "#life")
	cs.NotEmpty(p.ID)
	cs.NotEmpty(p.Date)
	cs.Equal("Morning Coffee", p.Title)
	cs.Equal([]string{"#life"}, p.Hashtags)
	cs.Empty(p.Comments)

	got, ok := cs.find(p.ID)
	cs.Require().True(ok)
	cs.Equal(p.Title, got.Title)
}

func (cs *ContractSuite) TestCreateRequiresTitleAndContent() {
	_, err := cs.s.Create(cs.ctx, models.PostInput{Title: "", Content: "x"})
	cs.ErrorIs(err, store.ErrValidation)
	_, err = cs.s.Create(cs.ctx, models.PostInput{Title: "x", Content: "  "})
	cs.ErrorIs(err, store.ErrValidation)
}

func (cs *ContractSuite) TestUpdateIsPartial() {
	p := cs.create("City Walk", "#life", "#city")
	title := "Night Walk"
	_, err := cs.s.Update(cs.ctx, p.ID, models.PostPatch{Title: &title})
	cs.Require().NoError(err)

	got, ok := cs.find(p.ID)
	cs.Require().True(ok)
	cs.Equal("Night Walk", got.Title)
	cs.Equal(p.Content, got.Content)
	cs.Equal([]string{"#life", "#city"}, got.Hashtags)
}

func (cs *ContractSuite) TestUpdateMissingPost() {
	title := "x"
	_, err := cs.s.Update(cs.ctx, missingID, models.PostPatch{Title: &title})
	cs.ErrorIs(err, store.ErrNotFound)
}

func (cs *ContractSuite) TestDeleteRemovesOnlyThatPost() {
	a := cs.create("A")
	b := cs.create("B")
	cs.Require().NoError(cs.s.AppendComment(cs.ctx, b.ID, store.NewComment("Sam", "Nice!", time.Now())))

	cs.Require().NoError(cs.s.Delete(cs.ctx, a.ID))

	_, ok := cs.find(a.ID)
	cs.False(ok)
	got, ok := cs.find(b.ID)
	cs.Require().True(ok)
	cs.Len(got.Comments, 1)

	cs.ErrorIs(cs.s.Delete(cs.ctx, a.ID), store.ErrNotFound)
}

func (cs *ContractSuite) TestCommentsAppendInOrder() {
	p := cs.create("A")
	first := store.NewComment("Ann", "first", time.Now())
	second := store.NewComment("Sam", "Nice!", time.Now())
	cs.Require().NoError(cs.s.AppendComment(cs.ctx, p.ID, first))
	cs.Require().NoError(cs.s.AppendComment(cs.ctx, p.ID, second))

	got, ok := cs.find(p.ID)
	cs.Require().True(ok)
	cs.Require().Len(got.Comments, 2)
	cs.Equal(first.ID, got.Comments[0].ID)
	cs.Equal(second.ID, got.Comments[1].ID)
	cs.Equal("Sam", got.Comments[1].Author)
}

func (cs *ContractSuite) TestRemoveComment() {
	p := cs.create("A")
	keep := store.NewComment("Ann", "keep", time.Now())
	drop := store.NewComment("Sam", "drop", time.Now())
	cs.Require().NoError(cs.s.AppendComment(cs.ctx, p.ID, keep))
	cs.Require().NoError(cs.s.AppendComment(cs.ctx, p.ID, drop))

	cs.Require().NoError(cs.s.RemoveComment(cs.ctx, p.ID, drop.ID))

	got, ok := cs.find(p.ID)
	cs.Require().True(ok)
	cs.Require().Len(got.Comments, 1)
	cs.Equal(keep.ID, got.Comments[0].ID)
}

func (cs *ContractSuite) TestCommentOnMissingPost() {
	err := cs.s.AppendComment(cs.ctx, missingID, store.NewComment("Sam", "hi", time.Now()))
	cs.ErrorIs(err, store.ErrNotFound)
	cs.ErrorIs(cs.s.RemoveComment(cs.ctx, missingID, "c"), store.ErrNotFound)
}

// missingID is a well-formed ObjectID that no test ever creates.
const missingID = "65f000000000000000000000"

// RequireEmpty is a helper for backends that need to clean shared state.
func RequireEmpty(t *testing.T, s store.Store) {
	posts, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	for _, p := range posts {
		require.NoError(t, s.Delete(context.Background(), p.ID))
	}
}
