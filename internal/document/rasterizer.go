// Package document validates uploaded appraisal PDFs and rasterizes their
// pages into scene images using the poppler tools.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Validation failures. All are surfaced synchronously before a job exists.
var (
	ErrNotPDF        = errors.New("document is not a PDF")
	ErrTooLarge      = errors.New("document exceeds the size ceiling")
	ErrEmptyDocument = errors.New("document has no pages")
)

// rasterDPI balances page image quality against encoder input size.
const rasterDPI = 150

// Rasterizer shells out to pdfinfo and pdftoppm.
type Rasterizer struct {
	pdfinfoPath  string
	pdftoppmPath string
	maxBytes     int64
}

func NewRasterizer(pdfinfoPath, pdftoppmPath string, maxBytes int64) *Rasterizer {
	return &Rasterizer{
		pdfinfoPath:  pdfinfoPath,
		pdftoppmPath: pdftoppmPath,
		maxBytes:     maxBytes,
	}
}

// Validate checks the document's format, size and page count. It returns the
// page count on success.
func (r *Rasterizer) Validate(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat document: %w", err)
	}
	if r.maxBytes > 0 && info.Size() > r.maxBytes {
		return 0, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open document: %w", err)
	}
	magic := make([]byte, 5)
	n, _ := f.Read(magic)
	f.Close()
	if n < 5 || !bytes.Equal(magic, []byte("%PDF-")) {
		return 0, ErrNotPDF
	}

	out, err := exec.CommandContext(ctx, r.pdfinfoPath, path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	pages, err := parsePageCount(string(out))
	if err != nil {
		return 0, err
	}
	if pages == 0 {
		return 0, ErrEmptyDocument
	}
	return pages, nil
}

// Rasterize converts each page into a JPEG under dir, in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, path, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create page dir: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, r.pdftoppmPath,
		"-jpeg",
		"-r", strconv.Itoa(rasterDPI),
		"-q",
		path,
		prefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, tailOf(stderr.String()))
	}

	pages, err := filepath.Glob(prefix + "-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("glob pages: %w", err)
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(pages)

	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}
	return pages, nil
}

// parsePageCount extracts the "Pages:" field from pdfinfo output.
func parsePageCount(out string) (int, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		v := strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parse page count %q: %w", v, err)
		}
		return n, nil
	}
	return 0, errors.New("pdfinfo output missing Pages field")
}

func tailOf(s string) string {
	const max = 400
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
