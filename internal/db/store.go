package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Pool returns the underlying pgxpool.Pool
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const postsTableSQL = `CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    date TEXT NOT NULL,
    content TEXT NOT NULL,
    image_url TEXT,
    audio_url TEXT,
    hashtags TEXT[] NOT NULL DEFAULT '{}',
    comments JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureSchema creates the posts table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("db not initialized")
	}
	if _, err := s.pool.Exec(ctx, postsTableSQL); err != nil {
		return store.Transport("create posts table", err)
	}
	return nil
}

const postColumns = `
	id,
	title,
	author,
	date,
	content,
	COALESCE(image_url, ''),
	COALESCE(audio_url, ''),
	COALESCE(hashtags, '{}'::text[]),
	COALESCE(comments, '[]'::jsonb),
	created_at`

func scanPost(row pgx.Row) (models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Author,
		&post.Date,
		&post.Content,
		&post.ImageURL,
		&post.AudioURL,
		&post.Hashtags,
		&post.Comments,
		&post.CreatedAt,
	)
	if err != nil {
		return models.Post{}, err
	}
	if post.Hashtags == nil {
		post.Hashtags = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return post, nil
}

func (s *Store) FetchAll(ctx context.Context) ([]models.Post, error) {
	if s.pool == nil {
		return nil, errors.New("db not initialized")
	}
	rows, err := s.pool.Query(ctx, `SELECT`+postColumns+` FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, store.Transport("list posts", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, store.Transport("scan post", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Transport("rows error", err)
	}
	return posts, nil
}

func (s *Store) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	if err := store.ValidateInput(in); err != nil {
		return models.Post{}, err
	}
	if s.pool == nil {
		return models.Post{}, errors.New("db not initialized")
	}
	post := store.NewPost(in, s.now())

	query := `
		INSERT INTO posts (id, title, author, date, content, image_url, audio_url, hashtags, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, '[]'::jsonb, $9)
		RETURNING` + postColumns

	created, err := scanPost(s.pool.QueryRow(
		ctx,
		query,
		post.ID,
		post.Title,
		post.Author,
		post.Date,
		post.Content,
		post.ImageURL,
		post.AudioURL,
		post.Hashtags,
		post.CreatedAt,
	))
	if err != nil {
		return models.Post{}, store.Transport("create post", err)
	}
	return created, nil
}

func (s *Store) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	if err := store.ValidatePatch(patch); err != nil {
		return models.Post{}, err
	}
	if s.pool == nil {
		return models.Post{}, errors.New("db not initialized")
	}
	var hashtags []string
	if patch.Hashtags != nil {
		hashtags = models.NormalizeHashtags(*patch.Hashtags)
	}

	// NULL parameters keep the stored value.
	query := `
		UPDATE posts SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			image_url = CASE WHEN $4::text IS NULL THEN image_url ELSE NULLIF($4::text, '') END,
			audio_url = CASE WHEN $5::text IS NULL THEN audio_url ELSE NULLIF($5::text, '') END,
			hashtags = CASE WHEN $6::boolean THEN $7::text[] ELSE hashtags END
		WHERE id = $1
		RETURNING` + postColumns

	updated, err := scanPost(s.pool.QueryRow(
		ctx,
		query,
		id,
		patch.Title,
		patch.Content,
		patch.ImageURL,
		patch.AudioURL,
		patch.Hashtags != nil,
		hashtags,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, store.NotFound("post", id)
		}
		return models.Post{}, store.Transport("update post", err)
	}
	return updated, nil
}

// Delete removes the row. Media in this backend is embedded in the row,
// so nothing else needs releasing.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.pool == nil {
		return errors.New("db not initialized")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return store.Transport("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return store.NotFound("post", id)
	}
	return nil
}

// updateComments runs a read-modify-write of one post's comment list
// inside a transaction holding the row lock.
func (s *Store) updateComments(ctx context.Context, postID string, change func([]models.Comment) ([]models.Comment, error)) error {
	if s.pool == nil {
		return errors.New("db not initialized")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.Transport("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var comments []models.Comment
	err = tx.QueryRow(ctx, `SELECT COALESCE(comments, '[]'::jsonb) FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&comments)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.NotFound("post", postID)
		}
		return store.Transport("load comments", err)
	}
	updated, err := change(comments)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE posts SET comments = $2 WHERE id = $1`, postID, updated); err != nil {
		return store.Transport("save comments", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return store.Transport("commit", err)
	}
	return nil
}

func (s *Store) AppendComment(ctx context.Context, postID string, c models.Comment) error {
	if err := store.ValidateComment(c); err != nil {
		return err
	}
	return s.updateComments(ctx, postID, func(comments []models.Comment) ([]models.Comment, error) {
		return append(comments, c), nil
	})
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	return s.updateComments(ctx, postID, func(comments []models.Comment) ([]models.Comment, error) {
		post := models.Post{Comments: comments}
		if _, ok := post.Comment(commentID); !ok {
			return nil, store.NotFound("comment", commentID)
		}
		return models.WithoutComment(comments, commentID), nil
	})
}
