package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/BorisDmv/vignettes/internal/session"
)

type field int

const (
	fieldTitle field = iota
	fieldContent
	fieldImage
	fieldAudio
	fieldHashtags
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Content", "Image URL", "Audio URL", "Hashtags"}

// editor is the post form shared by the creating and editing screens.
type editor struct {
	title    textinput.Model
	content  textarea.Model
	image    textinput.Model
	audio    textinput.Model
	hashtags textinput.Model
	focus    field
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 60
	return in
}

func newEditor() editor {
	e := editor{
		title:    newInput("Title", 200),
		image:    newInput("https://… or data:image/…", 0),
		audio:    newInput("https://… or data:audio/…", 0),
		hashtags: newInput("#life, #city", 500),
	}
	e.content = textarea.New()
	e.content.Placeholder = "Write…"
	e.content.CharLimit = 0
	e.content.ShowLineNumbers = false
	e.content.SetWidth(72)
	e.content.SetHeight(10)
	return e
}

func (e *editor) load(d session.Draft) tea.Cmd {
	e.title.SetValue(d.Title)
	e.content.SetValue(d.Content)
	e.image.SetValue(d.ImageURL)
	e.audio.SetValue(d.AudioURL)
	e.hashtags.SetValue(d.Hashtags)
	return e.setFocus(fieldTitle)
}

func (e *editor) draft() session.Draft {
	return session.Draft{
		Title:    strings.TrimSpace(e.title.Value()),
		Content:  e.content.Value(),
		ImageURL: strings.TrimSpace(e.image.Value()),
		AudioURL: strings.TrimSpace(e.audio.Value()),
		Hashtags: e.hashtags.Value(),
	}
}

func (e *editor) setSize(width, height int) {
	w := width - 4
	if w > 96 {
		w = 96
	}
	if w < 20 {
		w = 20
	}
	for _, in := range []*textinput.Model{&e.title, &e.image, &e.audio, &e.hashtags} {
		in.Width = w - 12
	}
	e.content.SetWidth(w)
	h := height - 16
	if h < 3 {
		h = 3
	}
	e.content.SetHeight(h)
}

func (e *editor) setFocus(f field) tea.Cmd {
	e.focus = f
	e.title.Blur()
	e.content.Blur()
	e.image.Blur()
	e.audio.Blur()
	e.hashtags.Blur()
	switch f {
	case fieldTitle:
		return e.title.Focus()
	case fieldContent:
		return e.content.Focus()
	case fieldImage:
		return e.image.Focus()
	case fieldAudio:
		return e.audio.Focus()
	default:
		return e.hashtags.Focus()
	}
}

func (e *editor) next(step int) tea.Cmd {
	return e.setFocus(field((int(e.focus) + step + int(fieldCount)) % int(fieldCount)))
}

func (e *editor) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch e.focus {
	case fieldTitle:
		e.title, cmd = e.title.Update(msg)
	case fieldContent:
		e.content, cmd = e.content.Update(msg)
	case fieldImage:
		e.image, cmd = e.image.Update(msg)
	case fieldAudio:
		e.audio, cmd = e.audio.Update(msg)
	default:
		e.hashtags, cmd = e.hashtags.Update(msg)
	}
	return cmd
}

func (e editor) view(accent lipgloss.Color) string {
	label := func(f field) string {
		style := lipgloss.NewStyle().Width(11).Foreground(lipgloss.Color("243"))
		if e.focus == f {
			style = style.Foreground(accent).Bold(true)
		}
		return style.Render(fieldLabels[f])
	}
	var b strings.Builder
	b.WriteString(label(fieldTitle) + " " + e.title.View() + "\n\n")
	b.WriteString(label(fieldContent) + "\n" + e.content.View() + "\n\n")
	b.WriteString(label(fieldImage) + " " + e.image.View() + "\n")
	b.WriteString(label(fieldAudio) + " " + e.audio.View() + "\n")
	b.WriteString(label(fieldHashtags) + " " + e.hashtags.View())
	return b.String()
}
