// Package nav tracks which screen the client shows and where "back"
// leads. It holds no posts, only the selected identifier.
package nav

import (
	"errors"
	"fmt"

	"github.com/BorisDmv/vignettes/internal/filter"
)

type Screen int

const (
	List Screen = iota
	ViewingPost
	Creating
	Editing
	About
)

func (s Screen) String() string {
	switch s {
	case List:
		return "list"
	case ViewingPost:
		return "viewing-post"
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	case About:
		return "about"
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

var ErrInvalidTransition = errors.New("invalid navigation")

// Navigator starts on the list. The zero value is ready to use.
type Navigator struct {
	screen   Screen
	back     Screen
	selected string
	tag      string
	query    string
}

func New() *Navigator {
	return &Navigator{}
}

func (n *Navigator) Screen() Screen { return n.screen }

// BackTarget is where Back will go.
func (n *Navigator) BackTarget() Screen { return n.back }

// Selected is the id of the viewed or edited post, "" when none.
func (n *Navigator) Selected() string { return n.selected }

func (n *Navigator) Tag() string   { return n.tag }
func (n *Navigator) Query() string { return n.query }

// Criteria is the filter the list screen applies.
func (n *Navigator) Criteria() filter.Criteria {
	return filter.Criteria{Tag: n.tag, Query: n.query}
}

func (n *Navigator) invalid(action string) error {
	return fmt.Errorf("%s from %s: %w", action, n.screen, ErrInvalidTransition)
}

// SelectPost shows a post and remembers the current screen for Back.
func (n *Navigator) SelectPost(id string) {
	n.selected = id
	n.back = n.screen
	n.screen = ViewingPost
}

// Edit opens the editor on the post being viewed.
func (n *Navigator) Edit() error {
	if n.screen != ViewingPost || n.selected == "" {
		return n.invalid("edit")
	}
	n.back = ViewingPost
	n.screen = Editing
	return nil
}

func (n *Navigator) Create() {
	n.selected = ""
	n.back = List
	n.screen = Creating
}

func (n *Navigator) About() {
	if n.screen == About {
		n.back = List
	} else {
		n.back = n.screen
	}
	n.screen = About
}

// Back returns to the remembered screen. A post screen with nothing
// selected falls back to the list.
func (n *Navigator) Back() {
	target := n.back
	if (target == ViewingPost || target == Editing) && n.selected == "" {
		target = List
	}
	n.screen = target
	n.back = List
}

// Cancel leaves the editor without saving: creating returns to the
// list, editing returns to the post.
func (n *Navigator) Cancel() error {
	switch n.screen {
	case Creating:
		n.screen = List
		n.back = List
	case Editing:
		n.Back()
	default:
		return n.invalid("cancel")
	}
	return nil
}

// Saved moves from either editor to the saved post. On a failed save
// the caller simply does not call it and the editor stays open.
func (n *Navigator) Saved(id string) error {
	if n.screen != Creating && n.screen != Editing {
		return n.invalid("save")
	}
	n.selected = id
	n.back = List
	n.screen = ViewingPost
	return nil
}

// Deleted returns to the list after the viewed post is gone.
func (n *Navigator) Deleted() {
	n.selected = ""
	n.back = List
	n.screen = List
}

// SelectTag filters the list by tag; "" clears the filter.
func (n *Navigator) SelectTag(tag string) {
	n.tag = tag
	n.selected = ""
	n.back = List
	n.screen = List
}

func (n *Navigator) SetQuery(q string) {
	n.query = q
}
