package efi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"pixbridge/internal/domain/credential"
	"pixbridge/internal/provider"
	"pixbridge/internal/provider/base"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// tokenSafetyMargin is how long before expiry a cached token stops being used.
const tokenSafetyMargin = 60 * time.Second

// TokenCache obtains OAuth client-credentials tokens and reuses them until
// they are within tokenSafetyMargin of expiring. Concurrent misses share one
// outbound request.
type TokenCache struct {
	http *base.HTTPClient
	cred credential.Credential
	now  func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	refresh singleflight.Group
}

// NewTokenCache creates a cache that authenticates with cred against httpClient's base URL
func NewTokenCache(httpClient *base.HTTPClient, cred credential.Credential) *TokenCache {
	return &TokenCache{http: httpClient, cred: cred, now: time.Now}
}

// Token returns a bearer token valid for at least tokenSafetyMargin.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	v, err, _ := c.refresh.Do("token", func() (any, error) {
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		// the fetch is shared, so one caller's cancellation must not fail the others
		return c.fetch(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next call re-authenticates.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

func (c *TokenCache) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expiresAt.Add(-tokenSafetyMargin)) {
		return c.token, true
	}
	return "", false
}

func (c *TokenCache) fetch(ctx context.Context) (string, error) {
	if err := c.cred.Validate(); err != nil {
		c.Invalidate()
		return "", &provider.ProviderError{
			Code:    provider.ErrAuthFailed,
			Message: "gateway credentials not configured",
			Err:     err,
		}
	}

	log.Info().
		Str("provider", providerName).
		Str("base_url", c.http.BaseURL()).
		Msg("requesting new access token")

	resp, err := c.http.PostJSON(ctx, "/oauth/token",
		map[string]string{"grant_type": "client_credentials"},
		map[string]string{"Authorization": c.cred.BasicAuth()},
	)
	if err != nil {
		c.Invalidate()
		return "", &provider.ProviderError{
			Code:    provider.ErrAuthFailed,
			Message: "token request failed",
			Err:     err,
		}
	}
	if !resp.IsSuccess() {
		c.Invalidate()
		return "", &provider.ProviderError{
			Code:    provider.ErrAuthFailed,
			Message: "token request rejected",
			Status:  resp.StatusCode,
			Body:    resp.String(),
		}
	}

	var auth struct {
		AccessToken string          `json:"access_token"`
		TokenType   string          `json:"token_type"`
		ExpiresIn   json.RawMessage `json:"expires_in"`
	}
	if err := resp.UnmarshalJSON(&auth); err != nil || auth.AccessToken == "" {
		c.Invalidate()
		if err == nil {
			err = fmt.Errorf("access_token missing")
		}
		return "", &provider.ProviderError{
			Code:    provider.ErrAuthFailed,
			Message: "malformed token response",
			Status:  resp.StatusCode,
			Body:    resp.String(),
			Err:     err,
		}
	}

	expiresIn := expiresInSeconds(auth.ExpiresIn)

	c.mu.Lock()
	c.token = auth.AccessToken
	c.expiresAt = c.now().Add(time.Duration(expiresIn) * time.Second)
	c.mu.Unlock()

	log.Info().
		Str("provider", providerName).
		Int64("expires_in", expiresIn).
		Msg("access token issued")

	return auth.AccessToken, nil
}

// expiresInSeconds accepts expires_in as a JSON number (integral or not) or a
// numeric string. Anything else yields 0, which leaves the token uncached so
// the next call refreshes.
func expiresInSeconds(raw json.RawMessage) int64 {
	v := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(secs) || secs <= 0 {
		return 0
	}
	return int64(math.Min(secs, math.MaxInt32))
}
