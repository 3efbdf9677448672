package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/shortener"
)

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Store: config.StoreConfig{
		Driver:    config.DriverSQLite,
		SQLiteDSN: filepath.Join(t.TempDir(), "links.db"),
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("OpenStore() unexpected error: %v", err)
	}
	defer store.Close()

	if store.Driver != config.DriverSQLite {
		t.Errorf("Driver = %s, want sqlite", store.Driver)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping() unexpected error: %v", err)
	}

	link, err := store.Repo.Create(ctx, shortener.Link{
		OwnerID: uuid.New(), Token: "wired", TargetURL: "https://example.com",
	})
	if err != nil {
		t.Fatalf("Repo.Create() unexpected error: %v", err)
	}
	if link.ID.Version() != 7 {
		t.Errorf("link id version = %d, want 7", link.ID.Version())
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mysql"}}
	if _, err := OpenStore(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("OpenStore() expected error for unknown driver")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(tt.level)
			ctx := context.Background()
			if !logger.Enabled(ctx, tt.want) {
				t.Errorf("level %s not enabled", tt.want)
			}
			if tt.want > slog.LevelDebug && logger.Enabled(ctx, tt.want-1) {
				t.Errorf("level below %s enabled", tt.want)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SHORTLINKS_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}

	t.Run("loads in test env", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		t.Setenv("SHORTLINKS_TEST_VALUE", "")
		_ = os.Unsetenv("SHORTLINKS_TEST_VALUE")

		LoadEnv(filepath.Join(dir, "missing.env"), path)

		if got := os.Getenv("SHORTLINKS_TEST_VALUE"); got != "from-file" {
			t.Errorf("SHORTLINKS_TEST_VALUE = %q, want from-file", got)
		}
	})

	t.Run("skipped in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("SHORTLINKS_TEST_VALUE", "")
		_ = os.Unsetenv("SHORTLINKS_TEST_VALUE")

		LoadEnv(path)

		if got := os.Getenv("SHORTLINKS_TEST_VALUE"); got != "" {
			t.Errorf("SHORTLINKS_TEST_VALUE = %q, want unset", got)
		}
	})
}
