package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"

	"github.com/nikhil7591/slidex/internal/deck"
)

// FromFile extracts raw text from a document on disk, dispatching on the
// file extension. The returned Document still needs normalization.
func FromFile(path string) (*deck.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name := filepath.Base(path)

	switch ext {
	case ".pdf":
		text, err := fromPDF(path)
		if err != nil {
			return nil, err
		}
		return &deck.Document{RawText: text, SourceKind: "pdf", SourceName: name}, nil
	case ".txt", ".md", "":
		text, err := fromText(path)
		if err != nil {
			return nil, err
		}
		return &deck.Document{RawText: text, SourceKind: "text", SourceName: name}, nil
	case ".html", ".htm":
		text, err := fromHTML(path)
		if err != nil {
			return nil, err
		}
		return &deck.Document{RawText: text, SourceKind: "html", SourceName: name}, nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func fromPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("no extractable text in PDF: %s", path)
	}
	return b.String(), nil
}

func fromText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	// Latin-1 tolerance: map each byte to the corresponding rune.
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

func fromHTML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading HTML file: %w", err)
	}

	pageURL, _ := url.Parse("file://" + path)
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", fmt.Errorf("extracting readable content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no extractable text in HTML: %s", path)
	}
	return text, nil
}
