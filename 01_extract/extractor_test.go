package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractMissingFile(t *testing.T) {
	_, err := New().Extract(filepath.Join(t.TempDir(), "nope.pdf"))
	if err == nil {
		t.Fatal("Extract() succeeded on a missing file")
	}
}

func TestExtractNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("just plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New().Extract(path); err == nil {
		t.Fatal("Extract() succeeded on a non-PDF file")
	}
}
