package listing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/greg-kim/auctionreel/pkg/models"
)

var imageClient = &http.Client{Timeout: 30 * time.Second}

// fetchImageURLs materializes a listing's image references into dir. HTTP(S)
// references are downloaded; anything else is treated as a local file path
// and copied. References that cannot be fetched are skipped; only an empty
// result is an error.
func fetchImageURLs(ctx context.Context, l *models.Listing, dir string) ([]string, error) {
	if len(l.ImageURLs) == 0 {
		return nil, ErrNoImages
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	var paths []string
	for i, ref := range l.ImageURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dst := filepath.Join(dir, fmt.Sprintf("%s_image_%d%s", SafeCaseNumber(l.CaseNumber), i, imageExt(ref)))

		var err error
		if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
			err = downloadImage(ctx, ref, dst)
		} else {
			err = copyFile(ref, dst)
		}
		if err != nil {
			continue
		}
		paths = append(paths, dst)
	}

	if len(paths) == 0 {
		return nil, ErrNoImages
	}
	return paths, nil
}

func downloadImage(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := imageClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image download: status %d", resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func imageExt(ref string) string {
	ext := strings.ToLower(filepath.Ext(ref))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
