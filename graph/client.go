// Package graph — notes API client.
// Thin wrapper over the Microsoft Graph OneNote endpoints: notebook and
// section listing, paginated page listing, and raw page content. All
// requests carry the bearer credential and go through a bounded
// exponential-backoff retry for gateway timeouts and transport errors;
// a 401 invalidates the cached token and retries with a fresh one.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gaurav-prasanna/notemark/core"
)

// DefaultBaseURL is the production Graph API root.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// RetryInitialDelay is the first backoff delay; it doubles on each
// retry. Tests override this to avoid real sleeps.
var RetryInitialDelay = 2 * time.Second

const (
	maxAttempts = 3
	pageSize    = 100
)

// Client calls the notes API on behalf of one user.
type Client struct {
	// BaseURL and HTTPClient have working defaults; tests point them
	// at a local server.
	BaseURL    string
	HTTPClient *http.Client

	tokens *TokenSource
	logger *slog.Logger
}

// NewClient creates a Client using tokens for authentication. A nil
// logger falls back to slog.Default.
func NewClient(tokens *TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		tokens:     tokens,
		logger:     logger,
	}
}

// CurrentToken exposes the cached bearer token so image fetches
// against the content host can authenticate.
func (c *Client) CurrentToken() string {
	return c.tokens.Current()
}

// ListNotebooks returns the user's notebooks.
func (c *Client) ListNotebooks(ctx context.Context) ([]core.Notebook, error) {
	body, err := c.get(ctx, c.BaseURL+"/me/onenote/notebooks", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Value []core.Notebook `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding notebooks: %w", err)
	}
	return resp.Value, nil
}

// ListSections returns the sections of a notebook.
func (c *Client) ListSections(ctx context.Context, notebookID string) ([]core.Section, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/me/onenote/notebooks/%s/sections", c.BaseURL, notebookID), nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Value []core.Section `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding sections: %w", err)
	}
	return resp.Value, nil
}

// ListPages returns the flat page listing of a section, with nesting
// level and sort key, following skip/top pagination until a batch
// comes back empty or the running count reaches the advertised total.
func (c *Client) ListPages(ctx context.Context, sectionID string) ([]core.PageRecord, error) {
	var all []core.PageRecord
	skip := 0

	// $count needs eventual consistency.
	header := http.Header{"ConsistencyLevel": []string{"eventual"}}

	for {
		q := url.Values{
			"pagelevel": []string{"true"},
			"$select":   []string{"id,title,level,order"},
			"$top":      []string{strconv.Itoa(pageSize)},
			"$count":    []string{"true"},
			"$skip":     []string{strconv.Itoa(skip)},
		}
		c.logger.Info("fetching pages",
			slog.String("section", sectionID),
			slog.Int("skip", skip))

		body, err := c.get(ctx, fmt.Sprintf("%s/me/onenote/sections/%s/pages?%s", c.BaseURL, sectionID, q.Encode()), header)
		if err != nil {
			return nil, err
		}

		var resp struct {
			Value []core.PageRecord `json:"value"`
			Count int               `json:"@odata.count"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decoding pages: %w", err)
		}
		if len(resp.Value) == 0 {
			break
		}
		all = append(all, resp.Value...)
		if resp.Count > 0 && len(all) >= resp.Count {
			break
		}
		skip += pageSize
	}
	return all, nil
}

// GetPageContent returns a page's raw HTML body.
func (c *Client) GetPageContent(ctx context.Context, pageID string) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/me/onenote/pages/%s/content", c.BaseURL, pageID), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// get performs an authenticated GET with bounded exponential backoff:
// up to maxAttempts tries, waiting RetryInitialDelay and doubling
// after each 504 or transport error. A 401 drops the cached token so
// the next attempt runs with a freshly acquired one.
func (c *Client) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	delay := RetryInitialDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("requesting %s: %w", rawURL, err)
			if attempt == maxAttempts {
				break
			}
			c.logger.Warn("request failed, retrying",
				slog.String("url", rawURL),
				slog.Duration("delay", delay),
				slog.Int("attempt", attempt))
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized && attempt < maxAttempts:
			c.logger.Warn("token rejected, reacquiring", slog.String("url", rawURL))
			c.tokens.Invalidate(token)
			continue

		case resp.StatusCode == http.StatusGatewayTimeout && attempt < maxAttempts:
			c.logger.Warn("gateway timeout, retrying",
				slog.String("url", rawURL),
				slog.Duration("delay", delay),
				slog.Int("attempt", attempt))
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
			continue

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("unexpected status %d for %s: %s", resp.StatusCode, rawURL, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
