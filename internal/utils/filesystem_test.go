package utils

import (
	"path/filepath"
	"testing"
)

func TestFileOperations(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(tmpDir, "nested", "out", "report.md")
		content := []byte("# Trace Report")
		if err := WriteFile(path, content); err != nil {
			t.Errorf("WriteFile() error = %v", err)
		}
		if !FileExists(path) {
			t.Error("File was not created")
		}

		readContent, err := ReadFile(path)
		if err != nil {
			t.Errorf("ReadFile() error = %v", err)
		}
		if string(readContent) != "# Trace Report" {
			t.Errorf("ReadFile() = %s, want '# Trace Report'", string(readContent))
		}
	})

	t.Run("FileExists", func(t *testing.T) {
		if FileExists(filepath.Join(tmpDir, "missing.zip")) {
			t.Error("FileExists() = true for missing file")
		}
	})

	t.Run("ReadMissingFile", func(t *testing.T) {
		if _, err := ReadFile(filepath.Join(tmpDir, "missing.zip")); err == nil {
			t.Error("ReadFile() = nil error for missing file")
		}
	})
}
