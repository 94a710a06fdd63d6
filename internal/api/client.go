// Package api is the HTTP client for the dashboard's holder lookup
// endpoint. Failures are classified into two sentinel errors so callers
// can tell a slow API from a broken one.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Ruutuli/whohas/internal/cache"
)

// Holding is an alias to cache.Holding; the client decodes straight
// into the type the store persists.
type Holding = cache.Holding

// Sentinel errors for fetch failures. Test with errors.Is.
var (
	// ErrTimeout means the per-request deadline elapsed before the
	// API answered.
	ErrTimeout = errors.New("request timed out")

	// ErrService means the API misbehaved: transport failure, non-2xx
	// status, or a body that does not parse.
	ErrService = errors.New("service request failed")
)

// DefaultTimeout bounds a single fetch when no timeout is configured.
const DefaultTimeout = 8 * time.Second

// Client fetches item holders from the dashboard API. One request per
// key; no retries at this layer.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient returns a client for the API at baseURL. A zero timeout
// falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

// BaseURL returns the API base the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ItemHolders returns who holds key, ordered by quantity descending
// with ties broken by holder name. An empty list is a valid answer,
// distinct from any error.
//
// The request runs under the client timeout; when it expires the
// underlying connection is torn down, not abandoned. Deadline expiry
// wraps ErrTimeout, every other failure wraps ErrService, and a
// canceled ctx propagates as a context error.
func (c *Client) ItemHolders(ctx context.Context, key string) ([]Holding, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/items/%s/holders", c.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: bad request for %q: %v", ErrService, key, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: lookup for %q returned %s", ErrService, key, resp.Status)
	}

	var holders []Holding
	if err := json.NewDecoder(resp.Body).Decode(&holders); err != nil {
		return nil, fmt.Errorf("%w: malformed response for %q: %v", ErrService, key, err)
	}

	sortHolders(holders)
	return holders, nil
}

// Ping reports whether the API base answers at all. Any HTTP response,
// whatever the status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("%w: bad base URL: %v", ErrService, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(err)
	}
	resp.Body.Close()
	return nil
}

// classify maps a transport error onto the package sentinels. Caller
// cancellation is passed through so it keeps matching context.Canceled.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrService, err)
}

// sortHolders normalizes the wire ordering contract: quantity
// descending, ties alphabetical.
func sortHolders(holders []Holding) {
	sort.Slice(holders, func(i, j int) bool {
		if holders[i].Quantity != holders[j].Quantity {
			return holders[i].Quantity > holders[j].Quantity
		}
		return holders[i].Name < holders[j].Name
	})
}
