package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/vignettes/internal/store"
	"github.com/BorisDmv/vignettes/internal/store/storetest"
)

func TestPostgresContract(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewStore(ctx, url)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))

	storetest.Run(t, func(t *testing.T) store.Store {
		storetest.RequireEmpty(t, s)
		return s
	})
}

func TestNilPoolFailsClosed(t *testing.T) {
	s := &Store{}
	_, err := s.FetchAll(context.Background())
	require.EqualError(t, err, "db not initialized")
	require.EqualError(t, s.Delete(context.Background(), "x"), "db not initialized")
}
