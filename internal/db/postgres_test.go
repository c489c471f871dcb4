package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
)

func TestSqliteDriver_OpensAndMigrates(t *testing.T) {
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "catalog.db"))
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	svc, err := NewPostgresService(log, "sqlite")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("migrate sqlite schema: %v", err)
	}

	// Timestamps are set in Go, not by column defaults, so a plain insert
	// must round-trip on sqlite too.
	now := time.Now().UTC()
	category := &catalog.Category{
		Name:      "Flowers",
		Slug:      "flowers",
		Path:      "flowers",
		Status:    catalog.StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.DB().Create(category).Error; err != nil {
		t.Fatalf("insert category: %v", err)
	}

	var loaded catalog.Category
	if err := svc.DB().Where("id = ?", category.ID).First(&loaded).Error; err != nil {
		t.Fatalf("load category: %v", err)
	}
	if loaded.CreatedAt.IsZero() || loaded.UpdatedAt.IsZero() {
		t.Fatalf("expected populated timestamps, got %+v", loaded)
	}
}
