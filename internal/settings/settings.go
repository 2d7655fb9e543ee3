// Package settings holds the client's local configuration: blog title,
// author, about text, login pair, theme and accent colors. It is loaded
// once at start and written back on every change.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Gradient struct {
	Start string `mapstructure:"start" json:"start"`
	End   string `mapstructure:"end" json:"end"`
}

type ThemeColors struct {
	Light Gradient `mapstructure:"light" json:"light"`
	Dark  Gradient `mapstructure:"dark" json:"dark"`
}

type Settings struct {
	BlogTitle  string      `mapstructure:"blog_title"`
	AuthorName string      `mapstructure:"author_name"`
	AboutMe    string      `mapstructure:"about_me"`
	Username   string      `mapstructure:"username"`
	Password   string      `mapstructure:"password"`
	Theme      string      `mapstructure:"theme"`
	Colors     ThemeColors `mapstructure:"colors"`
}

var defaults = map[string]string{
	"blog_title":         "Vignettes",
	"author_name":        "Author",
	"about_me":           "This is a blog about everyday life moments. Welcome! Tell your readers more about yourself here.",
	"username":           "admin",
	"password":           "testaccount",
	"theme":              "light",
	"colors.light.start": "#4338ca",
	"colors.light.end":   "#d946ef",
	"colors.dark.start":  "#a5b4fc",
	"colors.dark.end":    "#f9a8d4",
}

var ErrUnknownKey = errors.New("unknown setting")

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Keys lists every setting name accepted by Set.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CheckCredentials compares against the stored login pair. This gates
// the editor UI only; it is not a security boundary.
func (s Settings) CheckCredentials(username, password string) bool {
	return username == s.Username && password == s.Password
}

// Accent returns the gradient for the active theme.
func (s Settings) Accent() Gradient {
	if s.Theme == "dark" {
		return s.Colors.Dark
	}
	return s.Colors.Light
}

type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
	cur  Settings
}

// DefaultPath is settings.yaml under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "vignettes", "settings.yaml")
}

// Load reads path, falling back to defaults for anything missing. A
// missing file is not an error.
func Load(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VIGNETTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	s := &Store{v: v, path: path}
	if err := v.Unmarshal(&s.cur); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *Store) Path() string { return s.path }

func validate(key, value string) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("%q: %w", key, ErrUnknownKey)
	}
	switch {
	case key == "theme":
		if value != "light" && value != "dark" {
			return fmt.Errorf("theme must be light or dark, got %q", value)
		}
	case strings.HasPrefix(key, "colors."):
		if !hexColor.MatchString(value) {
			return fmt.Errorf("%s must be a #rrggbb color, got %q", key, value)
		}
	case key == "username" || key == "password" || key == "blog_title":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be blank", key)
		}
	}
	return nil
}

// Set changes one setting and saves the file.
func (s *Store) Set(key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
	if err := s.v.Unmarshal(&s.cur); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return s.save()
}

// Value returns one setting as a string.
func (s *Store) Value(key string) (string, error) {
	if _, ok := defaults[key]; !ok {
		return "", fmt.Errorf("%q: %w", key, ErrUnknownKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(key), nil
}

// ToggleTheme flips between light and dark and saves.
func (s *Store) ToggleTheme() error {
	next := "dark"
	if s.Get().Theme == "dark" {
		next = "light"
	}
	return s.Set("theme", next)
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	out := viper.New()
	for k := range defaults {
		out.Set(k, s.v.GetString(k))
	}
	if err := out.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
