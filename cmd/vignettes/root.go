package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/backend"
	"github.com/BorisDmv/vignettes/internal/comments"
	"github.com/BorisDmv/vignettes/internal/session"
	"github.com/BorisDmv/vignettes/internal/settings"
	"github.com/BorisDmv/vignettes/internal/state"
	"github.com/BorisDmv/vignettes/internal/store"
	"github.com/BorisDmv/vignettes/internal/transport"
	"github.com/BorisDmv/vignettes/internal/tui"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	opts         backend.Options
	settingsPath string
	geminiKey    string
	geminiModel  string
	verbose      bool
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()
	a := &app{}

	root := &cobra.Command{
		Use:          "vignettes",
		Short:        "Read and write a small blog from the terminal",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         a.runTUI,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.opts.Kind, "backend", env("BACKEND", backend.File), "post store: "+strings.Join(backend.Kinds, ", "))
	f.StringVar(&a.opts.DatabaseURL, "database-url", env("DATABASE_URL", ""), "Postgres connection string")
	f.StringVar(&a.opts.MongoURL, "mongo-url", env("MONGO_URL", ""), "MongoDB connection string")
	f.StringVar(&a.opts.MongoDBName, "mongo-db", env("MONGO_DBNAME", "vignettes"), "MongoDB database name")
	f.StringVar(&a.opts.RedisURL, "redis-url", env("REDIS_URL", ""), "Redis URL for the redis backend")
	f.StringVar(&a.opts.PostsFile, "posts-file", env("POSTS_FILE", "data/posts.json"), "JSON file for the file backend")
	f.StringVar(&a.opts.KVURL, "kv-url", env("KV_URL", ""), "blob URL for the kvhttp backend")
	f.StringVar(&a.opts.KVRestURL, "kv-rest-url", env("KV_REST_API_URL", ""), "REST URL for the kvrest backend")
	f.StringVar(&a.opts.KVRestToken, "kv-rest-token", env("KV_REST_API_TOKEN", ""), "token for the kvrest backend")
	f.StringVar(&a.opts.ServerURL, "server", env("VIGNETTES_SERVER", "http://localhost:8080"), "blog server for the rest backend")
	f.StringVar(&a.opts.ImgBBAPIKey, "imgbb-key", env("IMGBB_API_KEY", ""), "offload embedded images to ImgBB")
	f.StringVar(&a.opts.CacheRedisURL, "cache-redis-url", env("CACHE_REDIS_URL", ""), "cache the collection in Redis")
	f.DurationVar(&a.opts.CacheTTL, "cache-ttl", time.Hour, "lifetime of the cached collection")
	f.DurationVar(&a.opts.Timeout, "timeout", transport.DefaultTimeout, "limit for one backend call")
	f.StringVar(&a.settingsPath, "settings", settings.DefaultPath(), "local settings file")
	f.StringVar(&a.geminiKey, "gemini-key", env("GEMINI_API_KEY", env("API_KEY", "")), "Gemini API key for the assistant")
	f.StringVar(&a.geminiModel, "gemini-model", env("GEMINI_MODEL", ""), "Gemini model name")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log every backend request")

	root.AddCommand(
		a.listCmd(),
		a.tagsCmd(),
		a.askCmd(),
		a.loginCmd(),
		a.settingsCmd(),
	)
	return root
}

// open connects the backend and builds a session around it. The caller
// closes the returned backend.
func (a *app) open(ctx context.Context, confirm comments.Confirmer) (*backend.Backend, *session.Session, error) {
	opts := a.opts
	opts.HTTPClient = transport.NewClient(opts.Timeout, a.verbose)

	set, err := settings.Load(a.settingsPath)
	if err != nil {
		return nil, nil, err
	}

	b, err := backend.Open(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("backend %s: %w", opts.Kind, err)
	}
	if ensurer, ok := store.SchemaOf(b.Store); ok {
		if err := ensurer.EnsureSchema(ctx); err != nil {
			_ = b.Close(ctx)
			return nil, nil, fmt.Errorf("prepare %s schema: %w", opts.Kind, err)
		}
	}

	var (
		helper assistant.Assistant
		extra  []session.Option
	)
	if b.REST != nil {
		// The server holds the assistant key and enforces its own login.
		helper = b.REST.Assistant()
		extra = append(extra, session.WithRemoteLogin(b.REST.Login))
	} else {
		helper = assistant.New(ctx, a.geminiKey, a.geminiModel)
	}

	sess := session.New(state.New(b.Store), set, helper, confirm, extra...)
	return b, sess, nil
}

func closeBackend(b *backend.Backend) {
	if err := b.Close(context.Background()); err != nil {
		log.Printf("close backend: %v", err)
	}
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	// The alternate screen owns the terminal, so logs go to a file or
	// nowhere.
	if a.verbose {
		path := filepath.Join(filepath.Dir(a.settingsPath), "vignettes.log")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := tea.LogToFile(path, "vignettes")
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	dialog := tui.NewDialog()
	b, sess, err := a.open(cmd.Context(), dialog)
	if err != nil {
		return err
	}
	defer closeBackend(b)

	p := tea.NewProgram(tui.New(sess, dialog), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
