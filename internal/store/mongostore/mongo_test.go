package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/vignettes/internal/media"
	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
	"github.com/BorisDmv/vignettes/internal/store/storetest"
)

func connect(t *testing.T) *MongoStorage {
	url := os.Getenv("MONGO_URL")
	if url == "" {
		t.Skip("MONGO_URL not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, url, "vignettes_test_"+time.Now().Format("150405"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Database().Drop(ctx)
		_ = s.Close(ctx)
	})
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func TestMongoContract(t *testing.T) {
	s := connect(t)
	storetest.Run(t, func(t *testing.T) store.Store {
		storetest.RequireEmpty(t, s)
		return s
	})
}

func TestMongoMalformedIDIsNotFound(t *testing.T) {
	s := connect(t)
	assert.ErrorIs(t, s.Delete(context.Background(), "not-an-object-id"), store.ErrNotFound)
}

func TestMongoWithGridFSMedia(t *testing.T) {
	s := connect(t)
	ctx := context.Background()
	bucket, err := media.NewGridFS(s.Database())
	require.NoError(t, err)

	wrapped := store.WithMedia(s, bucket)
	p, err := wrapped.Create(ctx, models.PostInput{
		Title:    "t",
		Content:  "c",
		ImageURL: "data:text/plain;base64,aGVsbG8=",
	})
	require.NoError(t, err)
	require.True(t, bucket.Owns(p.ImageURL))

	data, _, err := bucket.Open(ctx, p.ImageURL[len("/media/"):])
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, wrapped.Delete(ctx, p.ID))
	_, _, err = bucket.Open(ctx, p.ImageURL[len("/media/"):])
	assert.ErrorIs(t, err, media.ErrNotFound)
}
