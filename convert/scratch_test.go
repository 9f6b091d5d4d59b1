package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScratchAllocateAndRelease(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scratch := NewScratch(dir)

	path, err := scratch.Allocate(".pdf")
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	if !strings.HasSuffix(path, ".pdf") {
		t.Fatalf("expected .pdf suffix, got %s", path)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("scratch file created outside its directory: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("scratch file does not exist: %v", err)
	}

	scratch.Release(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("scratch file still exists after release")
	}
}

func TestScratchReleaseMissingFile(t *testing.T) {
	t.Parallel()

	scratch := NewScratch(t.TempDir())
	// Releasing a path that was never allocated must not panic.
	scratch.Release(filepath.Join(t.TempDir(), "never-existed.pdf"))
}

func TestScratchAllocateUniquePaths(t *testing.T) {
	t.Parallel()

	scratch := NewScratch(t.TempDir())

	a, err := scratch.Allocate(".png")
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	defer scratch.Release(a)

	b, err := scratch.Allocate(".png")
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	defer scratch.Release(b)

	if a == b {
		t.Fatalf("two allocations returned the same path: %s", a)
	}
}
