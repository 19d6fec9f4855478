package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/brieflet/newsbrief-go/internal/blob"
	"github.com/brieflet/newsbrief-go/internal/embedder"
	"github.com/brieflet/newsbrief-go/internal/mailer"
	"github.com/brieflet/newsbrief-go/internal/rag"
)

// getEnvOrDefault returns the env var value or fallback if unset/empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the env var parsed as int, or fallback on absence or
// parse failure.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// defaultDBPath returns ~/.newsbrief/blobs.db, creating the directory if
// needed.
func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".newsbrief")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, "blobs.db"), nil
}

// openBlobStore opens the SQLite blob store at NEWSBRIEF_DB, falling back to
// the default path under the user's home directory.
func openBlobStore(log *slog.Logger) (*blob.SQLiteStore, error) {
	path := os.Getenv("NEWSBRIEF_DB")
	if path == "" {
		p, err := defaultDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	store, err := blob.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blob store at %s: %w", path, err)
	}
	log.Info("blob store opened", slog.String("path", path))
	return store, nil
}

// buildVectorStore connects to Qdrant using env configuration, sizing the
// collection from the resolved embedding backend so that article and query
// vectors always share a dimension.
func buildVectorStore(ctx context.Context, log *slog.Logger) (*rag.QdrantStore, error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "news-articles")
	vectorSize := uint64(embedder.DefaultDimensions(embedder.Backend())) //nolint:gosec // dimensions are bounded

	store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("connect to Qdrant at %s:%d: %w", host, port, err)
	}
	log.Info("qdrant store ready",
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("collection", collection),
	)
	return store, nil
}

// buildMailer constructs the email delivery client from env configuration.
func buildMailer() (*mailer.Client, error) {
	return mailer.NewClient(&mailer.Config{
		BaseURL: os.Getenv("RESEND_ENDPOINT"),
		APIKey:  os.Getenv("RESEND_API_KEY"),
		From:    os.Getenv("EMAIL_FROM"),
	})
}

// probeQdrant connects to Qdrant and issues a health check RPC.
func probeQdrant(ctx context.Context, log *slog.Logger) error {
	probeCtx, cancel := context.WithTimeout(ctx, diagnoseTimeout)
	defer cancel()

	store, err := buildVectorStore(probeCtx, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if _, err := store.Client().HealthCheck(probeCtx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// probeBlobStore verifies the SQLite blob store can be opened at its
// configured path.
func probeBlobStore(log *slog.Logger) error {
	store, err := openBlobStore(log)
	if err != nil {
		return err
	}
	return store.Close()
}
