// Package directory fetches the desired identity set and each identity's
// public keys from the remote trust source.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hnrobert/teamlogin/internal/identity"
)

var (
	// ErrNetwork covers transport failures, timeouts and non-2xx responses.
	ErrNetwork = errors.New("network error")
	// ErrParse covers malformed directory payloads.
	ErrParse = errors.New("parse error")
)

const (
	DefaultTeamURL   = "https://team-api.infra.rust-lang.org/v1/permissions/dev_desktop.json"
	DefaultKeysURL   = "https://github.com/{user}.keys"
	DefaultUserAgent = "rust-lang/simpleinfra (infra@rust-lang.org)"
	DefaultTimeout   = 30 * time.Second

	// UserPlaceholder is replaced by the path-escaped identity in KeysURL.
	UserPlaceholder = "{user}"

	DefaultMaxBody = 4 << 20
)

type Config struct {
	TeamURL   string
	KeysURL   string
	UserAgent string
	Timeout   time.Duration
	// MaxBody bounds a response body in bytes. Larger bodies are an error,
	// never silently cut.
	MaxBody int64
}

// Client talks to the trust endpoint and the key-hosting endpoint. The
// underlying http.Client is reused for every request.
type Client struct {
	cfg  Config
	http *http.Client
}

type permissions struct {
	GithubUsers *[]string `json:"github_users"`
}

// New returns a Client. A nil httpClient gets one bounded by cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.TeamURL == "" {
		cfg.TeamURL = DefaultTeamURL
	}
	if cfg.KeysURL == "" {
		cfg.KeysURL = DefaultKeysURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Identities returns the desired set, de-duplicated and sorted. An empty
// list is a valid answer and means nobody is authorized.
func (c *Client) Identities(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.cfg.TeamURL)
	if err != nil {
		return nil, err
	}
	var p permissions
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrParse, c.cfg.TeamURL, err)
	}
	if p.GithubUsers == nil {
		return nil, fmt.Errorf("%w: %s: missing github_users field", ErrParse, c.cfg.TeamURL)
	}
	ids, err := identity.Normalize(*p.GithubUsers)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, c.cfg.TeamURL, err)
	}
	return ids, nil
}

// Keys returns the raw key material published for one identity.
func (c *Client) Keys(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, c.KeysURL(id))
}

// KeysURL is the per-identity key endpoint.
func (c *Client) KeysURL(id string) string {
	return strings.ReplaceAll(c.cfg.KeysURL, UserPlaceholder, url.PathEscape(id))
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request %s: %v", ErrNetwork, u, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrNetwork, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.cfg.MaxBody))
		return nil, fmt.Errorf("%w: GET %s: status %s", ErrNetwork, u, resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrNetwork, u, err)
	}
	if int64(len(b)) > c.cfg.MaxBody {
		return nil, fmt.Errorf("%w: GET %s: body exceeds %d bytes", ErrNetwork, u, c.cfg.MaxBody)
	}
	return b, nil
}
