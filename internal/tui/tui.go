// Package tui is the terminal client. Each screen mirrors one
// navigation state; backend calls run as commands and the screen is
// frozen behind a "Saving…" notice until they answer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/comments"
	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/nav"
	"github.com/BorisDmv/vignettes/internal/render"
	"github.com/BorisDmv/vignettes/internal/session"
	"github.com/BorisDmv/vignettes/internal/store"
)

// callTimeout bounds one backend or assistant call started from a key.
const callTimeout = 30 * time.Second

type modalKind int

const (
	modalNone modalKind = iota
	modalConfirm
	modalComment
	modalLogin
	modalChat
	modalSearch
	modalTags
	modalAnswer
)

type (
	loadedMsg  struct{ err error }
	savedMsg   struct{ err error }
	deletedMsg struct{ err error }
	// doneMsg reports a comment or login action with its notice.
	doneMsg struct {
		notice string
		err    error
	}
	answerMsg struct {
		text string
		err  error
	}
	hashtagsMsg struct {
		tags string
		err  error
	}
	spellMsg struct {
		text string
		err  error
	}
)

type postItem struct{ post models.Post }

func (i postItem) Title() string { return i.post.Title }
func (i postItem) Description() string {
	return i.post.Date + " · " + render.Preview(i.post.Content, 80)
}
func (i postItem) FilterValue() string { return i.post.Title }

type tagItem struct {
	tag   string
	count int
}

func (i tagItem) Title() string {
	if i.tag == "" {
		return "All posts"
	}
	return i.tag
}
func (i tagItem) Description() string {
	if i.tag == "" {
		return "clear the tag filter"
	}
	return fmt.Sprintf("%d posts", i.count)
}
func (i tagItem) FilterValue() string { return i.tag }

type Model struct {
	sess   *session.Session
	dialog *Dialog

	width  int
	height int

	posts  list.Model
	tags   list.Model
	reader viewport.Model
	editor editor

	// comment is the index of the highlighted comment on the post screen.
	comment int

	modal     modalKind
	prompt    string
	onConfirm func() tea.Cmd
	inputs    []textinput.Model
	focus     int

	busy   bool
	frozen string
	notice string
}

// New builds the model. dialog must be the Confirmer the session was
// created with.
func New(sess *session.Session, dialog *Dialog) *Model {
	m := &Model{sess: sess, dialog: dialog, editor: newEditor()}
	m.posts = list.New([]list.Item{}, list.NewDefaultDelegate(), 80, 20)
	m.posts.Title = sess.Settings.Get().BlogTitle
	m.posts.SetFilteringEnabled(false)
	m.posts.SetShowHelp(false)
	m.tags = list.New([]list.Item{}, list.NewDefaultDelegate(), 60, 12)
	m.tags.Title = "Tags"
	m.tags.SetFilteringEnabled(false)
	m.tags.SetShowHelp(false)
	m.reader = viewport.New(80, 20)
	m.busy = true
	m.notice = "Loading posts…"
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

func (m *Model) refresh() tea.Cmd {
	st := m.sess.State
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return loadedMsg{err: st.Refresh(ctx)}
	}
}

// run freezes the screen and performs fn off the event loop.
func (m *Model) run(notice string, fn func(ctx context.Context) tea.Msg) tea.Cmd {
	m.frozen = m.body()
	m.busy = true
	m.notice = notice
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m *Model) accent() lipgloss.Color {
	return lipgloss.Color(m.sess.Settings.Get().Accent().Start)
}

func describe(err error) string {
	switch {
	case errors.Is(err, store.ErrValidation):
		return "Check your input: " + err.Error()
	case errors.Is(err, store.ErrNotFound):
		return "That post or comment no longer exists."
	case errors.Is(err, store.ErrBusy):
		return "Still saving, try again in a moment."
	case errors.Is(err, assistant.ErrUnavailable):
		return "The assistant is unavailable right now."
	case errors.Is(err, store.ErrTransport):
		return "Could not reach the blog: " + err.Error()
	case errors.Is(err, comments.ErrCancelled):
		return "Cancelled."
	}
	return err.Error()
}

// sync reloads the lists from the session after any change.
func (m *Model) sync() {
	items := make([]list.Item, 0)
	for _, p := range m.sess.Displayed() {
		items = append(items, postItem{post: p})
	}
	m.posts.SetItems(items)
	title := m.sess.Settings.Get().BlogTitle
	if tag := m.sess.Nav.Tag(); tag != "" {
		title += " · " + tag
	}
	if q := m.sess.Nav.Query(); q != "" {
		title += " · “" + q + "”"
	}
	m.posts.Title = title

	tags := []list.Item{tagItem{}}
	for _, t := range m.sess.Tags() {
		tags = append(tags, tagItem{tag: t.Tag, count: t.Count})
	}
	m.tags.SetItems(tags)

	if p, ok := m.sess.Current(); ok && m.sess.Nav.Screen() == nav.ViewingPost {
		if m.comment >= len(p.Comments) {
			m.comment = len(p.Comments) - 1
		}
		if m.comment < 0 {
			m.comment = 0
		}
		m.reader.SetContent(m.postView(p))
	}
}

func (m *Model) openModal(kind modalKind, placeholders ...string) tea.Cmd {
	m.modal = kind
	m.inputs = make([]textinput.Model, len(placeholders))
	for i, ph := range placeholders {
		m.inputs[i] = newInput(ph, 0)
	}
	m.focus = 0
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[0].Focus()
}

func (m *Model) confirm(prompt string, action func() tea.Cmd) {
	m.modal = modalConfirm
	m.prompt = prompt
	m.onConfirm = action
}

func (m *Model) closeModal() {
	m.modal = modalNone
	m.inputs = nil
	m.onConfirm = nil
	m.prompt = ""
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.posts.SetSize(msg.Width, msg.Height-4)
		m.tags.SetSize(msg.Width/2, msg.Height/2)
		m.reader.Width = msg.Width
		m.reader.Height = msg.Height - 4
		m.editor.setSize(msg.Width, msg.Height)
		if !m.busy {
			m.sync()
		}
		return m, nil

	case loadedMsg:
		m.busy = false
		m.notice = ""
		if msg.err != nil {
			m.notice = describe(msg.err)
		}
		m.sync()
		return m, nil

	case savedMsg:
		m.busy = false
		m.notice = "Saved."
		if msg.err != nil {
			m.notice = describe(msg.err)
		}
		m.sync()
		m.reader.GotoTop()
		return m, nil

	case deletedMsg:
		m.busy = false
		m.notice = "Deleted."
		if msg.err != nil {
			m.notice = describe(msg.err)
		}
		m.sync()
		return m, nil

	case doneMsg:
		m.busy = false
		m.notice = msg.notice
		if msg.err != nil {
			m.notice = describe(msg.err)
		}
		m.sync()
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = describe(msg.err)
			return m, nil
		}
		m.notice = ""
		m.modal = modalAnswer
		m.prompt = msg.text
		return m, nil

	case hashtagsMsg:
		m.busy = false
		m.notice = "Hashtags suggested."
		if msg.err != nil {
			m.notice = describe(msg.err)
		}
		m.editor.hashtags.SetValue(msg.tags)
		return m, nil

	case spellMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = describe(msg.err)
			return m, nil
		}
		m.notice = "Spelling checked."
		m.editor.content.SetValue(msg.text)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// One action at a time: keys are ignored until it answers.
		if m.busy {
			return m, nil
		}
		if m.modal != modalNone {
			return m, m.updateModal(msg)
		}
		switch m.sess.Nav.Screen() {
		case nav.List:
			return m, m.updateList(msg)
		case nav.ViewingPost:
			return m, m.updatePost(msg)
		case nav.Creating, nav.Editing:
			return m, m.updateEditor(msg)
		case nav.About:
			return m, m.updateAbout(msg)
		}
	}

	if m.busy {
		return m, nil
	}
	if m.sess.Nav.Screen() == nav.Creating || m.sess.Nav.Screen() == nav.Editing {
		return m, m.editor.update(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "enter":
		if it, ok := m.posts.SelectedItem().(postItem); ok {
			m.sess.Nav.SelectPost(it.post.ID)
			m.comment = 0
			m.sync()
			m.reader.GotoTop()
		}
		return nil
	case "/":
		return m.openModal(modalSearch, "Search titles and content")
	case "t":
		m.modal = modalTags
		return nil
	case "n":
		if !m.sess.IsAuthor() {
			m.notice = "Log in with L to write posts."
			return nil
		}
		m.sess.Nav.Create()
		return m.editor.load(session.Draft{})
	case "a":
		m.showAbout()
		return nil
	case "T":
		if err := m.sess.Settings.ToggleTheme(); err != nil {
			m.notice = describe(err)
		}
		m.sync()
		return nil
	case "c":
		return m.openModal(modalChat, "Ask about this blog")
	case "L":
		if m.sess.IsAuthor() {
			m.sess.Logout()
			m.notice = "Logged out."
			return nil
		}
		cmd := m.openModal(modalLogin, "Username", "Password")
		m.inputs[1].EchoMode = textinput.EchoPassword
		return cmd
	case "r":
		return m.run("Loading posts…", func(ctx context.Context) tea.Msg {
			return loadedMsg{err: m.sess.State.Refresh(ctx)}
		})
	case "esc":
		if m.sess.Nav.Tag() != "" || m.sess.Nav.Query() != "" {
			m.sess.Nav.SelectTag("")
			m.sess.Nav.SetQuery("")
			m.sync()
		}
		return nil
	}
	var cmd tea.Cmd
	m.posts, cmd = m.posts.Update(msg)
	return cmd
}

func (m *Model) updatePost(msg tea.KeyMsg) tea.Cmd {
	p, ok := m.sess.Current()
	if !ok {
		m.sess.Nav.Back()
		m.sync()
		return nil
	}
	sess := m.sess
	switch msg.String() {
	case "esc", "backspace", "left", "h":
		sess.Nav.Back()
		m.sync()
		return nil
	case "q":
		return tea.Quit
	case "e":
		if !sess.IsAuthor() {
			m.notice = "Log in with L to edit posts."
			return nil
		}
		if err := sess.Nav.Edit(); err != nil {
			m.notice = describe(err)
			return nil
		}
		return m.editor.load(sess.Draft())
	case "d":
		if !sess.IsAuthor() {
			m.notice = "Log in with L to delete posts."
			return nil
		}
		m.confirm("Are you sure you want to delete this post?", func() tea.Cmd {
			return m.run("Deleting…", func(ctx context.Context) tea.Msg {
				return deletedMsg{err: sess.DeleteCurrent(ctx)}
			})
		})
		return nil
	case "c":
		return m.openModal(modalComment, "Your name", "Your comment")
	case "]":
		if m.comment < len(p.Comments)-1 {
			m.comment++
			m.sync()
		}
		return nil
	case "[":
		if m.comment > 0 {
			m.comment--
			m.sync()
		}
		return nil
	case "x":
		if !sess.IsAuthor() || len(p.Comments) == 0 {
			return nil
		}
		id := p.Comments[m.comment].ID
		m.confirm("Are you sure you want to delete this comment?", func() tea.Cmd {
			return m.run("Deleting…", func(ctx context.Context) tea.Msg {
				return doneMsg{notice: "Comment deleted.", err: sess.RemoveComment(ctx, id)}
			})
		})
		return nil
	case "a":
		m.showAbout()
		return nil
	}
	var cmd tea.Cmd
	m.reader, cmd = m.reader.Update(msg)
	return cmd
}

func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	sess := m.sess
	switch msg.String() {
	case "esc":
		if err := sess.Nav.Cancel(); err != nil {
			m.notice = describe(err)
		}
		m.sync()
		return nil
	case "tab":
		return m.editor.next(1)
	case "shift+tab":
		return m.editor.next(-1)
	case "ctrl+s":
		d := m.editor.draft()
		return m.run("Saving…", func(ctx context.Context) tea.Msg {
			_, err := sess.Save(ctx, d)
			return savedMsg{err: err}
		})
	case "ctrl+t":
		d := m.editor.draft()
		return m.run("Suggesting hashtags…", func(ctx context.Context) tea.Msg {
			tags, err := sess.SuggestHashtags(ctx, d)
			return hashtagsMsg{tags: tags, err: err}
		})
	case "ctrl+k":
		d := m.editor.draft()
		return m.run("Checking spelling…", func(ctx context.Context) tea.Msg {
			text, err := sess.CheckSpelling(ctx, d)
			return spellMsg{text: text, err: err}
		})
	}
	return m.editor.update(msg)
}

func (m *Model) showAbout() {
	set := m.sess.Settings.Get()
	title := lipgloss.NewStyle().Bold(true).Foreground(m.accent()).Render("About " + set.AuthorName)
	m.reader.SetContent(title + "\n\n" + set.AboutMe)
	m.reader.GotoTop()
	m.sess.Nav.About()
}

func (m *Model) updateAbout(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "backspace", "left", "h", "a":
		m.sess.Nav.Back()
		m.sync()
		return nil
	case "q":
		return tea.Quit
	}
	var cmd tea.Cmd
	m.reader, cmd = m.reader.Update(msg)
	return cmd
}

func (m *Model) updateModal(msg tea.KeyMsg) tea.Cmd {
	sess := m.sess
	switch m.modal {
	case modalAnswer:
		m.closeModal()
		return nil
	case modalConfirm:
		switch msg.String() {
		case "y", "Y":
			action := m.onConfirm
			m.closeModal()
			m.dialog.set(true)
			return action()
		case "n", "N", "esc":
			m.closeModal()
			m.notice = "Cancelled."
		}
		return nil
	case modalTags:
		switch msg.String() {
		case "esc":
			m.closeModal()
			return nil
		case "enter":
			if it, ok := m.tags.SelectedItem().(tagItem); ok {
				sess.Nav.SelectTag(it.tag)
			}
			m.closeModal()
			m.sync()
			return nil
		}
		var cmd tea.Cmd
		m.tags, cmd = m.tags.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "esc":
		m.closeModal()
		return nil
	case "tab", "shift+tab":
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		return m.inputs[m.focus].Focus()
	case "enter":
		if m.focus < len(m.inputs)-1 {
			m.inputs[m.focus].Blur()
			m.focus++
			return m.inputs[m.focus].Focus()
		}
		values := make([]string, len(m.inputs))
		for i, in := range m.inputs {
			values[i] = in.Value()
		}
		kind := m.modal
		m.closeModal()
		return m.submit(kind, values)
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) submit(kind modalKind, values []string) tea.Cmd {
	sess := m.sess
	switch kind {
	case modalSearch:
		sess.Nav.SetQuery(strings.TrimSpace(values[0]))
		m.sync()
		return nil
	case modalComment:
		author, content := values[0], values[1]
		return m.run("Saving…", func(ctx context.Context) tea.Msg {
			_, err := sess.Comment(ctx, author, content)
			return doneMsg{notice: "Comment added.", err: err}
		})
	case modalLogin:
		username, password := values[0], values[1]
		return m.run("Logging in…", func(ctx context.Context) tea.Msg {
			return doneMsg{notice: "Logged in as " + username + ".", err: sess.Login(ctx, username, password)}
		})
	case modalChat:
		question := values[0]
		return m.run("Thinking…", func(ctx context.Context) tea.Msg {
			text, err := sess.Ask(ctx, question)
			return answerMsg{text: text, err: err}
		})
	}
	return nil
}

func (m *Model) postView(p models.Post) string {
	accent := m.accent()
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(accent).Render(p.Title) + "\n")
	b.WriteString(muted.Render(p.Author+" · "+p.Date) + "\n\n")
	if p.ImageURL != "" {
		b.WriteString(muted.Render("[image] "+mediaLabel(p.ImageURL)) + "\n")
	}
	if p.AudioURL != "" {
		b.WriteString(muted.Render("[audio] "+mediaLabel(p.AudioURL)) + "\n")
	}
	w := m.reader.Width
	if w <= 0 || w > 96 {
		w = 96
	}
	b.WriteString(lipgloss.NewStyle().Width(w).Render(p.Content) + "\n\n")
	if len(p.Hashtags) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(accent).Render(strings.Join(p.Hashtags, " ")) + "\n\n")
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Comments ("+strconv.Itoa(len(p.Comments))+")") + "\n")
	for i, c := range p.Comments {
		marker := "  "
		if i == m.comment {
			marker = lipgloss.NewStyle().Foreground(accent).Render("▸ ")
		}
		b.WriteString(marker + lipgloss.NewStyle().Bold(true).Render(c.Author) + " " + muted.Render(c.Date) + "\n")
		b.WriteString("  " + c.Content + "\n")
	}
	return b.String()
}

// mediaLabel keeps embedded data URLs from flooding the screen.
func mediaLabel(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		if i := strings.IndexByte(ref, ';'); i > 0 {
			return "embedded " + strings.TrimPrefix(ref[:i], "data:")
		}
		return "embedded"
	}
	return ref
}

func (m *Model) body() string {
	switch m.sess.Nav.Screen() {
	case nav.ViewingPost, nav.About:
		return m.reader.View()
	case nav.Creating, nav.Editing:
		heading := "New post"
		if m.sess.Nav.Screen() == nav.Editing {
			heading = "Edit post"
		}
		return lipgloss.NewStyle().Bold(true).Render(heading) + "\n\n" + m.editor.view(m.accent())
	}
	if len(m.posts.Items()) == 0 {
		msg := "No posts yet."
		switch {
		case m.sess.State.Loading():
			msg = "Loading posts…"
		case m.sess.State.Err() != nil:
			msg = "Could not load posts: " + m.sess.State.Err().Error() + "\nPress r to retry."
		case m.sess.Nav.Tag() != "" || m.sess.Nav.Query() != "":
			msg = "No posts match. Press esc to clear the filter."
		}
		return lipgloss.NewStyle().Bold(true).Foreground(m.accent()).Render(m.posts.Title) + "\n\n" + msg
	}
	return m.posts.View()
}

func (m *Model) help() string {
	switch m.sess.Nav.Screen() {
	case nav.ViewingPost:
		keys := "esc: back  c: comment  a: about"
		if m.sess.IsAuthor() {
			keys += "  e: edit  d: delete  [/]: pick comment  x: delete comment"
		}
		return keys
	case nav.Creating, nav.Editing:
		return "tab: next field  ctrl+s: save  ctrl+t: suggest hashtags  ctrl+k: spellcheck  esc: cancel"
	case nav.About:
		return "esc: back"
	}
	keys := "enter: open  /: search  t: tags  c: ask  a: about  r: reload  T: theme  L: log in/out  q: quit"
	if m.sess.IsAuthor() {
		keys = "n: new post  " + keys
	}
	return keys
}

func (m *Model) minibuffer() string {
	txt := strings.TrimSpace(strings.ReplaceAll(m.notice, "\n", " "))
	if txt == "" {
		txt = " "
	}
	w := m.width
	if w <= 0 {
		w = 80
	}
	return lipgloss.NewStyle().
		Width(w).
		Padding(0, 1).
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("255")).
		Render(txt)
}

func renderModalBox(screenWidth int, title, body string) string {
	w := screenWidth - 12
	if w < 20 {
		w = 20
	}
	if w > 72 {
		w = 72
	}
	header := lipgloss.NewStyle().Bold(true).Render(title)
	box := lipgloss.NewStyle().
		Width(w).
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62"))
	return box.Render(header + "\n\n" + body)
}

func (m *Model) modalView() string {
	switch m.modal {
	case modalConfirm:
		return renderModalBox(m.width, m.prompt, "y: yes   n: no")
	case modalTags:
		return renderModalBox(m.width, "Filter by tag", m.tags.View())
	case modalAnswer:
		return renderModalBox(m.width, "Assistant", m.prompt+"\n\n"+lipgloss.NewStyle().Faint(true).Render("any key: close"))
	}
	titles := map[modalKind]string{
		modalComment: "Add a comment",
		modalLogin:   "Author login",
		modalChat:    "Ask the blog assistant",
		modalSearch:  "Search",
	}
	views := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		views[i] = in.View()
	}
	return renderModalBox(m.width, titles[m.modal], strings.Join(views, "\n"))
}

func (m *Model) View() string {
	if m.busy {
		return m.frozen + "\n" + m.minibuffer() + "\n" +
			lipgloss.NewStyle().Faint(true).Render("ctrl+c: quit")
	}
	out := m.body()
	if m.modal != modalNone {
		out += "\n" + m.modalView()
	}
	return out + "\n" + m.minibuffer() + "\n" + lipgloss.NewStyle().Faint(true).Render(m.help())
}
