package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/backend"
	"github.com/BorisDmv/vignettes/internal/config"
	"github.com/BorisDmv/vignettes/internal/handlers"
	"github.com/BorisDmv/vignettes/internal/store"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	b, err := backend.Open(ctx, backend.Options{
		Kind:          cfg.Backend,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURL:      cfg.MongoURL,
		MongoDBName:   cfg.MongoDBName,
		RedisURL:      cfg.RedisURL,
		PostsFile:     cfg.PostsFile,
		KVURL:         cfg.KVURL,
		KVRestURL:     cfg.KVRestURL,
		KVRestToken:   cfg.KVRestToken,
		ImgBBAPIKey:   cfg.ImgBBAPIKey,
		CacheRedisURL: cfg.CacheRedisURL,
		CacheTTL:      cfg.CacheTTL,
		Timeout:       cfg.StoreTimeout,
	})
	if err != nil {
		log.Fatalf("backend %s: %v", cfg.Backend, err)
	}
	defer func() {
		if err := b.Close(context.Background()); err != nil {
			log.Printf("close backend: %v", err)
		}
	}()

	// Create tables if not exist
	if ensurer, ok := store.SchemaOf(b.Store); ok {
		if err := ensurer.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to prepare %s schema: %v", cfg.Backend, err)
		}
	}

	router := handlers.NewRouter(handlers.Deps{
		Store:              b.Store,
		Media:              b.Media,
		Assistant:          assistant.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel),
		Auth:               handlers.NewAuth(cfg.JWTSecret, cfg.AdminUsername, cfg.AdminPassword),
		AuthToken:          cfg.AuthToken,
		BlogTitle:          cfg.BlogTitle,
		BaseURL:            cfg.BaseURL,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})
	defer router.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (backend %s)", cfg.Port, cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
