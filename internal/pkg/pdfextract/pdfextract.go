package pdfextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrExtraction = errors.New("pdf extraction failed")
	// ErrNoPages means the file parsed but carries no page with extractable text.
	ErrNoPages = errors.New("pdf has no extractable pages")
)

// Page is the text of one PDF page. Number is 1-indexed; Total is the page
// count of the whole file, blank pages included.
type Page struct {
	Number int
	Total  int
	Text   string
}

// Source yields stored document bytes by key.
type Source interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Extractor copies a stored PDF to a transient local file and parses it page by page.
type Extractor struct {
	source  Source
	tempDir string
}

func NewExtractor(source Source, tempDir string) *Extractor {
	return &Extractor{source: source, tempDir: tempDir}
}

func (e *Extractor) Extract(ctx context.Context, key string) ([]Page, error) {
	rc, err := e.source.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrExtraction, key, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(e.tempDir, "extract-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", ErrExtraction, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("%w: copy %s: %v", ErrExtraction, key, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close temp file: %v", ErrExtraction, err)
	}
	return ExtractPages(tmp.Name())
}

// ExtractPages parses the PDF at path. Pages without text are skipped; the
// parser panics on some malformed inputs, which is reported as ErrExtraction.
func ExtractPages(path string) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer f.Close()

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrExtraction, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Total: total, Text: text})
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages, nil
}
