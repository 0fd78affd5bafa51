package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestFromFileText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("Plain notes about the quarter."))
	doc, err := FromFile(path)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if doc.SourceKind != "text" {
		t.Errorf("expected kind 'text', got %q", doc.SourceKind)
	}
	if doc.RawText != "Plain notes about the quarter." {
		t.Errorf("unexpected text: %q", doc.RawText)
	}
	if doc.SourceName != "notes.txt" {
		t.Errorf("unexpected source name: %q", doc.SourceName)
	}
}

func TestFromFileLatin1Fallback(t *testing.T) {
	// 0xE9 is 'é' in latin-1 and invalid as a standalone UTF-8 byte.
	path := writeFile(t, "legacy.txt", []byte{'c', 'a', 'f', 0xE9})
	doc, err := FromFile(path)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if doc.RawText != "café" {
		t.Errorf("expected latin-1 decoding, got %q", doc.RawText)
	}
}

func TestFromFileHTML(t *testing.T) {
	html := `<html><head><title>Report</title></head><body><article><h1>Annual Report</h1><p>` +
		strings.Repeat("The results improved across regions. ", 20) +
		`</p></article></body></html>`
	path := writeFile(t, "report.html", []byte(html))

	doc, err := FromFile(path)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if doc.SourceKind != "html" {
		t.Errorf("expected kind 'html', got %q", doc.SourceKind)
	}
	if !strings.Contains(doc.RawText, "results improved") {
		t.Errorf("expected article text, got %q", doc.RawText)
	}
}

func TestFromFileUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "deck.pptx", []byte("binary"))
	if _, err := FromFile(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
