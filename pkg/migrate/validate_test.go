package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateSQLMigrationProducesValidSkeleton(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Device Index!")
	if err != nil {
		t.Fatalf("CreateSQLMigration() error: %v", err)
	}
	if !strings.HasSuffix(path, "_add_device_index.sql") {
		t.Fatalf("unexpected filename: %s", path)
	}

	if err := ValidateDir(dir); err != nil {
		t.Fatalf("ValidateDir() rejected generated migration: %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatalf("expected error for name with no usable characters")
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "add_stuff.sql", "-- +goose Up\n-- +goose Down\n")

	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected error for unversioned filename")
	}
}

func TestValidateDirRejectsMissingDownMarker(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20260101000000_add_stuff.sql", "-- +goose Up\nSELECT 1;\n")

	err := ValidateDir(dir)
	if err == nil || !strings.Contains(err.Error(), "goose Down") {
		t.Fatalf("expected missing Down error, got %v", err)
	}
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose Down\n"
	writeMigration(t, dir, "20260101000000_first.sql", body)
	writeMigration(t, dir, "20260101000000_second.sql", body)

	err := ValidateDir(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate migration version") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestValidateDirShippedMigrations(t *testing.T) {
	root, err := filepath.Abs("migrations")
	if err != nil {
		t.Fatalf("resolve migrations dir: %v", err)
	}
	if err := ValidateDir(root); err != nil {
		t.Fatalf("shipped migrations failed validation: %v", err)
	}
}

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
