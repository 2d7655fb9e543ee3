package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/session"
	"github.com/BorisDmv/vignettes/internal/settings"
	"github.com/BorisDmv/vignettes/internal/store/flatblob"
)

type fixture struct {
	posts    string
	settings string
}

func newFixture(t *testing.T) fixture {
	dir := t.TempDir()
	f := fixture{
		posts:    filepath.Join(dir, "posts.json"),
		settings: filepath.Join(dir, "settings.yaml"),
	}
	s := flatblob.New(&flatblob.FileBlob{Path: f.posts})
	for _, in := range []models.PostInput{
		{Title: "Morning Coffee", Content: "beans", Author: "Author", Hashtags: []string{"#life"}},
		{Title: "City Walk", Content: "streets", Author: "Author", Hashtags: []string{"#life", "#city"}},
	} {
		_, err := s.Create(context.Background(), in)
		require.NoError(t, err)
	}
	return f
}

// run executes the client with the fixture's backend and settings.
func (f fixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--backend", "file",
		"--posts-file", f.posts,
		"--settings", f.settings,
		"--gemini-key", "",
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning Coffee")
	assert.Contains(t, out, "City Walk")

	out, err = f.run(t, "", "list", "--tag", "#city")
	require.NoError(t, err)
	assert.Contains(t, out, "City Walk")
	assert.NotContains(t, out, "Morning Coffee")

	out, err = f.run(t, "", "list", "-q", "BEANS")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning Coffee")
	assert.NotContains(t, out, "City Walk")

	out, err = f.run(t, "", "list", "--tag", "#none")
	require.NoError(t, err)
	assert.Equal(t, "No posts.\n", out)
}

func TestListPages(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "", "list", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "City Walk")
	assert.NotContains(t, out, "Morning Coffee")
	require.Contains(t, out, "More: --cursor ")
	cursor := strings.TrimSpace(out[strings.Index(out, "--cursor ")+len("--cursor "):])

	out, err = f.run(t, "", "list", "--limit", "1", "--cursor", cursor)
	require.NoError(t, err)
	assert.Contains(t, out, "Morning Coffee")
	assert.NotContains(t, out, "City Walk")
	assert.NotContains(t, out, "More:")
}

func TestTags(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "", "tags")
	require.NoError(t, err)
	assert.Equal(t, "#life\t2\n#city\t1\n", out)
}

func TestAskWithoutKey(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "", "ask", "what", "is", "this?")
	assert.ErrorIs(t, err, assistant.ErrUnavailable)

	_, err = f.run(t, "", "ask")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "testaccount\n", "login")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as admin.\n", out)

	_, err = f.run(t, "nope\n", "login", "-u", "admin")
	assert.ErrorIs(t, err, session.ErrBadLogin)
}

func TestSettings(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "", "settings", "set", "blog_title", "Small Things")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved blog_title")

	set, err := settings.Load(f.settings)
	require.NoError(t, err)
	assert.Equal(t, "Small Things", set.Get().BlogTitle)

	out, err = f.run(t, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Small Things")
	assert.Contains(t, out, "***********")
	assert.NotContains(t, out, "testaccount")

	_, err = f.run(t, "", "settings", "set", "nope", "x")
	assert.ErrorIs(t, err, settings.ErrUnknownKey)
}
