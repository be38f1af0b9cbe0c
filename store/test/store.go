package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/feeta/internal/profile"
	"github.com/hrygo/feeta/store"
	"github.com/hrygo/feeta/store/db"
)

// NewTestingStore opens a migrated store for the driver selected by DRIVER
// (sqlite by default, backed by a file in t.TempDir).
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	prof := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(prof)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(dbDriver, prof)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		_ = ts.Close()
	})
	return ts
}

func getTestingProfile(t *testing.T) *profile.Profile {
	driver := getDriverFromEnv()
	dir := t.TempDir()

	var dsn string
	switch driver {
	case "postgres":
		dsn = GetPostgresDSN(t)
	default:
		dsn = filepath.Join(dir, "feeta_test.db")
	}

	return &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		DSN:    dsn,
		Driver: driver,
	}
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
