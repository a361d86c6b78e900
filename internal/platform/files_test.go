package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")

	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Expected directory to exist, got %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected created path to be a directory")
	}

	// Creating again is a no-op
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Errorf("Expected no error for existing directory, got %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if filepath.Base(dir) != AppDirName {
		t.Errorf("Expected config dir to end with %s, got %s", AppDirName, dir)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected config dir to be created, got %v", err)
	}
}

func TestGetHomeDownloadsDir(t *testing.T) {
	dir, err := GetHomeDownloadsDir()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !strings.HasSuffix(dir, "Downloads") {
		t.Errorf("Expected path ending in Downloads, got %s", dir)
	}
}

func TestExistingAbsPath(t *testing.T) {
	if _, err := existingAbsPath(""); err == nil {
		t.Error("Expected error for empty path")
	}
	if _, err := existingAbsPath("/definitely/not/a/real/file"); err == nil {
		t.Error("Expected error for missing file")
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	abs, err := existingAbsPath(file)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !filepath.IsAbs(abs) {
		t.Errorf("Expected absolute path, got %s", abs)
	}
}

func TestOpenFileInManager_MissingFile(t *testing.T) {
	if err := OpenFileInManager("/definitely/not/a/real/file"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestOpenFileWithDefaultApp_MissingFile(t *testing.T) {
	if err := OpenFileWithDefaultApp(""); err == nil {
		t.Error("Expected error for empty path")
	}
}
