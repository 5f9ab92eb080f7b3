package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	data, err := fs.ReadFile(FS, "00001_pipeline.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(data)
	for _, fragment := range []string{"-- +goose Up", "-- +goose Down", "CREATE TABLE IF NOT EXISTS status_history"} {
		if !strings.Contains(sql, fragment) {
			t.Fatalf("expected migration to contain %q", fragment)
		}
	}
}
