package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBackupCreatesCopy(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Enqueue(ctx, "payload", time.Now()); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path, err := st.Backup(ctx, dir, 7)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("backup file is empty")
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("backup landed in %s, want %s", filepath.Dir(path), dir)
	}
}

func TestPruneBackupsKeepsNewest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	names := []string{
		"backup_20260101_010000.db",
		"backup_20260102_010000.db",
		"backup_20260103_010000.db",
		"unrelated.txt",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := pruneBackups(dir, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, names[0])); !os.IsNotExist(err) {
		t.Fatal("oldest backup survived pruning")
	}
	for _, keep := range []string{names[1], names[2], names[3]} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Fatalf("pruning removed %s: %v", keep, err)
		}
	}
}
