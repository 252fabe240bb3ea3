// Package images implements the ImageDownloader interface.
// It streams remote images to a section's shared images directory,
// assigning collision-resistant local names from the page title, a
// hash of the source URL, and a per-page counter.
package images

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gaurav-prasanna/notemark/core/sanitize"
)

const (
	defaultTimeout = 30 * time.Second
	// defaultExt is used when neither the URL path nor the content
	// type reveals the image format.
	defaultExt = ".png"
)

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a Fetcher with a sensible timeout. A nil logger falls
// back to slog.Default.
func New(logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger,
	}
}

// Download fetches imageURL into destDir and returns the assigned local
// filename. The counter is incremented once per call; callers reset it
// at the start of each page so names stay unique within a page without
// any shared state between workers.
//
// Any network or filesystem error is logged as a warning and returned;
// the caller is expected to continue without the image.
func (f *Fetcher) Download(ctx context.Context, imageURL, destDir, pageTitle string, header http.Header, counter *int) (string, error) {
	ext := f.inferExtension(ctx, imageURL, header)
	*counter++

	hash := fmt.Sprintf("%x", md5.Sum([]byte(imageURL)))[:8]
	name := fmt.Sprintf("%s_image_%s_%d%s", sanitize.ImageName(pageTitle), hash, *counter, ext)
	dest := filepath.Join(destDir, name)

	if err := f.fetch(ctx, imageURL, dest, header); err != nil {
		f.logger.Warn("image download failed",
			slog.String("url", imageURL),
			slog.String("error", err.Error()))
		return "", err
	}
	return name, nil
}

// fetch streams the response body to dest.
func (f *Fetcher) fetch(ctx context.Context, imageURL, dest string, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, imageURL)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing file %s: %w", dest, err)
	}
	return nil
}

// inferExtension derives the image extension from the URL path. When
// the path carries none, a HEAD probe on the URL supplies the MIME
// subtype. Probe failures fall back to defaultExt.
func (f *Fetcher) inferExtension(ctx context.Context, imageURL string, header http.Header) string {
	if parsed, err := url.Parse(imageURL); err == nil {
		if ext := path.Ext(parsed.Path); ext != "" {
			return "." + sanitize.ImageName(strings.TrimPrefix(ext, "."))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return defaultExt
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return defaultExt
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if sub, ok := strings.CutPrefix(ct, "image/"); ok && sub != "" {
		// "image/svg+xml" and friends still sanitize to something usable.
		return "." + sanitize.ImageName(sub)
	}
	return defaultExt
}
