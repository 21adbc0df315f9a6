package safe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFile(t *testing.T) {
	t.Run("reads regular file", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "catalog.yaml")
		content := []byte("interfaces: []\n")

		if err := os.WriteFile(src, content, 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := ReadFile(src, nil)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}

		if string(got) != string(content) {
			t.Errorf("got %q, want %q", got, content)
		}
	})

	t.Run("rejects symlink by default", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "catalog.yaml")
		link := filepath.Join(tmpDir, "link.yaml")

		if err := os.WriteFile(src, []byte("test"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := os.Symlink(src, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		if _, err := ReadFile(link, nil); err == nil {
			t.Fatal("expected error for symlink, got nil")
		}

		got, err := ReadFile(link, &ReadFileOptions{AllowSymlinks: true})
		if err != nil {
			t.Fatalf("ReadFile with AllowSymlinks failed: %v", err)
		}
		if string(got) != "test" {
			t.Errorf("got %q, want %q", got, "test")
		}
	})

	t.Run("rejects directory", func(t *testing.T) {
		if _, err := ReadFile(t.TempDir(), nil); err == nil {
			t.Fatal("expected error for directory, got nil")
		}
	})

	t.Run("rejects file exceeding max size", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "catalog.yaml")

		content := make([]byte, 1024)
		if err := os.WriteFile(src, content, 0o644); err != nil {
			t.Fatal(err)
		}

		_, err := ReadFile(src, &ReadFileOptions{MaxSize: 512})
		if err == nil {
			t.Fatal("expected error for oversized file, got nil")
		}
	})
}
