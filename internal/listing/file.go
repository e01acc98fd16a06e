package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/greg-kim/auctionreel/pkg/models"
)

// FileSource reads per-case listing documents from a directory. Each file is
// named <safe case number>.json and holds one Listing.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) GetListing(_ context.Context, caseNumber string) (*models.Listing, error) {
	path := filepath.Join(s.dir, SafeCaseNumber(caseNumber)+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read listing file: %w", err)
	}

	var l models.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse listing file %s: %w", filepath.Base(path), err)
	}
	return &l, nil
}

func (s *FileSource) SearchListings(ctx context.Context, limit int) ([]*models.Listing, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read listing dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []*models.Listing
	for _, name := range names {
		if limit > 0 && len(out) >= limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read listing file: %w", err)
		}
		var l models.Listing
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("parse listing file %s: %w", name, err)
		}
		out = append(out, &l)
	}
	return out, nil
}

func (s *FileSource) FetchImages(ctx context.Context, l *models.Listing, dir string) ([]string, error) {
	return fetchImageURLs(ctx, l, dir)
}

// SaveListing writes an uploaded listing document into the data directory.
func (s *FileSource) SaveListing(l *models.Listing) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create listing dir: %w", err)
	}
	path := filepath.Join(s.dir, SafeCaseNumber(l.CaseNumber)+".json")
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode listing: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write listing file: %w", err)
	}
	return path, nil
}

var _ Source = (*FileSource)(nil)
