package file

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestListFiles_Basic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTempFile(t, dir, "b.txt", "b")
	writeTempFile(t, dir, "a.txt", "a")
	writeTempFile(t, dir, ".hidden", "h")
	if err := os.Mkdir(filepath.Join(dir, "archive"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeTempFile(t, filepath.Join(dir, "archive"), "c.txt", "c")

	got, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles error: %v", err)
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListFiles(%q) = %#v, want %#v", dir, got, want)
	}
}

func TestListFiles_EmptyDir(t *testing.T) {
	t.Parallel()

	got, err := ListFiles(t.TempDir())
	if err != nil {
		t.Fatalf("ListFiles error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}

func TestListFiles_DirNotFound(t *testing.T) {
	t.Parallel()

	if _, err := ListFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing dir, got nil")
	}
}
