package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"facility-report/internal/config"

	"go.uber.org/zap"
)

type staticRefs struct {
	paths []string
}

func (s *staticRefs) ListImagePaths(ctx context.Context) ([]string, error) {
	return s.paths, nil
}

func writeFile(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSweeper(t *testing.T, dir string, refs ImageRefLister) *Sweeper {
	t.Helper()
	cfg := &config.Config{
		FSPath:        dir,
		SweepSchedule: "0 3 * * *",
		SweepMaxAge:   "1h",
	}
	storage := NewStorage(cfg, zap.NewNop())
	return NewSweeper(storage, refs, cfg, zap.NewNop())
}

func TestSweepRemovesOnlyOldOrphans(t *testing.T) {
	dir := t.TempDir()

	referenced := writeFile(t, dir, "kept.jpg", 48*time.Hour)
	orphanOld := writeFile(t, dir, "orphan-old.jpg", 48*time.Hour)
	writeFile(t, dir, "orphan-new.jpg", time.Minute)

	sweeper := newTestSweeper(t, dir, &staticRefs{paths: []string{referenced}})

	removed, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(referenced); err != nil {
		t.Errorf("referenced file was removed: %v", err)
	}
	if _, err := os.Stat(orphanOld); !os.IsNotExist(err) {
		t.Error("old orphan still present")
	}
	if _, err := os.Stat(filepath.Join(dir, "orphan-new.jpg")); err != nil {
		t.Errorf("file inside grace period was removed: %v", err)
	}
}

func TestSweepEmptyDir(t *testing.T) {
	sweeper := newTestSweeper(t, t.TempDir(), &staticRefs{})

	removed, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}
