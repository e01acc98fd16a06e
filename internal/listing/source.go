// Package listing resolves auction case records and their scene images.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/greg-kim/auctionreel/pkg/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound means the case number is absent from the listing source.
	ErrNotFound = errors.New("listing not found")
	// ErrNoImages means the listing resolved but has no usable scene images.
	ErrNoImages = errors.New("no images available for listing")
)

// Source is the listing data access interface. Implementations must resolve
// a case number to a full record and materialize its photos as local files.
type Source interface {
	// GetListing returns the record for a case number, or ErrNotFound.
	GetListing(ctx context.Context, caseNumber string) (*models.Listing, error)
	// SearchListings returns up to limit records in source order.
	SearchListings(ctx context.Context, limit int) ([]*models.Listing, error)
	// FetchImages materializes the listing's photos into dir, in order, and
	// returns their paths. Returns ErrNoImages when nothing can be fetched.
	FetchImages(ctx context.Context, l *models.Listing, dir string) ([]string, error)
	// Name returns the source identifier (e.g. "mock", "file", "postgres").
	Name() string
}

// Catalog holds the configured listing sources. The default is chosen by
// LISTING_SOURCE; a job may select another available source explicitly.
type Catalog struct {
	defaultName string
	sources     map[string]Source
}

// NewCatalog wires the available sources. pool may be nil when the postgres
// source is not configured.
func NewCatalog(defaultSource, dataDir string, pool *pgxpool.Pool) (*Catalog, error) {
	c := &Catalog{
		defaultName: defaultSource,
		sources: map[string]Source{
			"mock": NewMockSource(),
			"file": NewFileSource(dataDir),
		},
	}
	if pool != nil {
		c.sources["postgres"] = NewPostgresSource(pool)
	}
	if _, ok := c.sources[defaultSource]; !ok {
		return nil, fmt.Errorf("default listing source %q is not configured", defaultSource)
	}
	return c, nil
}

// Select returns the source for mode, or the default when mode is empty.
func (c *Catalog) Select(mode string) (Source, error) {
	if mode == "" {
		mode = c.defaultName
	}
	src, ok := c.sources[mode]
	if !ok {
		return nil, fmt.Errorf("unknown listing source %q", mode)
	}
	return src, nil
}

// Default returns the configured default source.
func (c *Catalog) Default() Source {
	return c.sources[c.defaultName]
}

// SafeCaseNumber makes a case number usable as a file name component.
func SafeCaseNumber(caseNumber string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return r.Replace(caseNumber)
}
