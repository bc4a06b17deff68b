package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/me/mediafront/pkg/model"
)

// maxBodyBytes bounds how much of a backend response is read.
const maxBodyBytes = 1 << 20

// ErrUnauthenticated is returned by WhoAmI when the backend answers 401 or 403.
var ErrUnauthenticated = errors.New("identity: not authenticated")

// StatusError reports an unexpected HTTP status from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// ClientConfig locates the backend identity endpoints.
type ClientConfig struct {
	BaseURL    string        // e.g. "https://media.example.com"
	WhoAmIPath string        // default "/api/v1/whoami"
	LogoutPath string        // default "/accounts/logout/"
	Timeout    time.Duration // per request; 0 disables
}

// Client talks to the backend identity and logout endpoints with the
// credentials held in its cookie jar.
type Client struct {
	base      *url.URL
	whoamiURL string
	logoutURL string
	client    *http.Client
	logger    *slog.Logger
}

// NewClient creates a client. jar may be nil, in which case requests are sent
// without credentials.
func NewClient(cfg ClientConfig, jar http.CookieJar, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", cfg.BaseURL)
	}
	if cfg.WhoAmIPath == "" {
		cfg.WhoAmIPath = "/api/v1/whoami"
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = "/accounts/logout/"
	}
	whoami, err := base.Parse(cfg.WhoAmIPath)
	if err != nil {
		return nil, fmt.Errorf("parse whoami path: %w", err)
	}
	logout, err := base.Parse(cfg.LogoutPath)
	if err != nil {
		return nil, fmt.Errorf("parse logout path: %w", err)
	}
	return &Client{
		base:      base,
		whoamiURL: whoami.String(),
		logoutURL: logout.String(),
		client:    &http.Client{Jar: jar, Timeout: cfg.Timeout},
		logger:    logger,
	}, nil
}

// HTTPClient returns the underlying credentialed HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.client
}

// WhoAmI fetches the raw identity of the current credentials.
// It returns ErrUnauthenticated for 401/403 and a *StatusError for any other
// non-200 status.
func (c *Client) WhoAmI(ctx context.Context) (model.WhoAmI, error) {
	var raw model.WhoAmI

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.whoamiURL, nil)
	if err != nil {
		return raw, fmt.Errorf("create request: %w", err)
	}
	setJSONHeaders(req)

	c.logger.Debug("whoami", "url", c.whoamiURL)

	resp, err := c.client.Do(req)
	if err != nil {
		return raw, fmt.Errorf("whoami: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return raw, fmt.Errorf("read whoami response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return raw, ErrUnauthenticated
	default:
		return raw, &StatusError{Op: "whoami", StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return raw, fmt.Errorf("decode whoami response: %w", err)
	}
	return raw, nil
}

// Logout ends the backend session. The CSRF token is read from the jar and
// sent even when empty.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.logoutURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	setJSONHeaders(req)
	req.Header.Set(CSRFHeader, c.CSRFToken())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Op: "logout", StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return nil
}

// CSRFToken returns the URL-decoded csrftoken cookie for the backend origin,
// or "" when the jar holds none.
func (c *Client) CSRFToken() string {
	if c.client.Jar == nil {
		return ""
	}
	for _, ck := range c.client.Jar.Cookies(c.base) {
		if ck.Name == CSRFCookieName {
			return decodeCookieValue(ck.Value)
		}
	}
	return ""
}

func setJSONHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
