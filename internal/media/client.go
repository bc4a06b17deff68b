// Package media fetches the backend media listings shown on the home page.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sourcegraph/conc/pool"

	"github.com/me/mediafront/internal/metrics"
	"github.com/me/mediafront/pkg/model"
)

const maxBodyBytes = 8 << 20

// Lister fetches one media listing.
type Lister interface {
	List(ctx context.Context, endpoint string, limit int) (*model.MediaPage, error)
}

// Client reads media listings with the session's credentials.
type Client struct {
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a media client. hc is usually the identity client's
// credentialed HTTP client so private listings are visible.
func NewClient(hc *http.Client, logger *slog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{client: hc, logger: logger}
}

// List GETs endpoint and returns at most limit items (limit <= 0 keeps all).
func (c *Client) List(ctx context.Context, endpoint string, limit int) (*model.MediaPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("media list", "url", endpoint)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read media response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list media %s: HTTP %d", endpoint, resp.StatusCode)
	}

	var page model.MediaPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode media response: %w", err)
	}
	if limit > 0 && len(page.Results) > limit {
		page.Results = page.Results[:limit]
	}
	return &page, nil
}

// Request describes one section fetch.
type Request struct {
	Key      string
	Endpoint string
	Limit    int
	Enabled  bool
}

// Result is the outcome of one section fetch. Disabled sections and failed
// fetches carry an empty page.
type Result struct {
	Key  string
	Page *model.MediaPage
	Err  error
}

// Len returns the number of items the section's data source returned.
func (r Result) Len() int {
	return r.Page.Len()
}

// LoadSections fetches the enabled sections concurrently and returns one
// result per request, in request order. Failures are logged and reported as
// zero items.
func LoadSections(ctx context.Context, lister Lister, reqs []Request, logger *slog.Logger) []Result {
	results := make([]Result, len(reqs))
	p := pool.New().WithMaxGoroutines(max(1, len(reqs)))
	for i, req := range reqs {
		results[i] = Result{Key: req.Key, Page: &model.MediaPage{}}
		if !req.Enabled {
			continue
		}
		p.Go(func() {
			page, err := lister.List(ctx, req.Endpoint, req.Limit)
			if err != nil {
				logger.Warn("load section failed", "section", req.Key, "error", err)
				results[i].Err = err
				metrics.SetSectionItems(req.Key, 0)
				return
			}
			results[i].Page = page
			metrics.SetSectionItems(req.Key, page.Len())
		})
	}
	p.Wait()
	return results
}
