package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Upstream is a JSON GET client for an optional backing service, behind a breaker.
type Upstream struct {
	name    string
	base    string
	path    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewUpstream(name, base, path string, timeout time.Duration, s BreakerSettings, logger *zap.Logger) *Upstream {
	if logger == nil {
		logger = zap.NewNop()
	}
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	return &Upstream{
		name:    name,
		base:    base,
		path:    path,
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker(name, s, func(error) bool { return true }, logger),
	}
}

// Configured reports whether a base URL was given.
func (u *Upstream) Configured() bool { return u != nil && u.base != "" }

// GetJSON runs GET base+path?query and decodes the body into out.
func (u *Upstream) GetJSON(ctx context.Context, query url.Values, out any) error {
	if !u.Configured() {
		return fmt.Errorf("%s upstream not configured", u.name)
	}
	target := u.base + u.path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	_, err := u.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		resp, err := u.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request error: %w", u.name, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%s upstream status %d", u.name, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%s decode error: %w", u.name, err)
		}
		return nil, nil
	})
	return err
}
