package efi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"pixbridge/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T) (*fakeEfi, *TokenCache, *fakeClock) {
	fake, srv := newFakeEfi(t)
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := New(testCfg(srv.URL), srv.Client()).Tokens()
	cache.now = clock.Now
	return fake, cache, clock
}

func TestToken_SendsBasicAuthAndGrantType(t *testing.T) {
	fake, cache, _ := newTestCache(t)

	tok, err := cache.Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, basicAuth("client-id", "client-secret"), fake.header("POST /oauth/token", "Authorization"))
	assert.Equal(t, "application/json", fake.header("POST /oauth/token", "Content-Type"))
	assert.Equal(t, map[string]any{"grant_type": "client_credentials"}, fake.body("POST /oauth/token"))
}

func TestToken_ReusedWithinValidity(t *testing.T) {
	fake, cache, clock := newTestCache(t)

	first, err := cache.Token(context.Background())
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	second, err := cache.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.count("POST /oauth/token"))
}

func TestToken_RefreshedInsideSafetyMargin(t *testing.T) {
	fake, cache, clock := newTestCache(t)

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	// 59m59s: still one second outside the margin
	clock.Advance(3600*time.Second - tokenSafetyMargin - time.Second)
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.count("POST /oauth/token"))

	// exactly expiresAt-60s: must refresh
	clock.Advance(time.Second)
	fake.handle("POST /oauth/token", jsonResponse(http.StatusOK, `{"access_token":"tok-2","expires_in":3600}`))
	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, 2, fake.count("POST /oauth/token"))
}

func TestToken_ExpiresInAsString(t *testing.T) {
	fake, cache, _ := newTestCache(t)
	fake.handle("POST /oauth/token", jsonResponse(http.StatusOK, `{"access_token":"tok-s","expires_in":"3599"}`))

	for i := 0; i < 3; i++ {
		tok, err := cache.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-s", tok)
	}
	assert.Equal(t, 1, fake.count("POST /oauth/token"))
}

func TestToken_MissingExpiryIsNotCached(t *testing.T) {
	fake, cache, _ := newTestCache(t)
	fake.handle("POST /oauth/token", jsonResponse(http.StatusOK, `{"access_token":"tok-x"}`))

	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	_, err = cache.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, fake.count("POST /oauth/token"))
}

func TestToken_FractionalExpiresInIsCached(t *testing.T) {
	fake, cache, clock := newTestCache(t)
	fake.handle("POST /oauth/token", jsonResponse(http.StatusOK, `{"access_token":"tok-f","expires_in":3600.0}`))

	for i := 0; i < 3; i++ {
		tok, err := cache.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-f", tok)
	}
	assert.Equal(t, 1, fake.count("POST /oauth/token"))

	clock.Advance(3600*time.Second - tokenSafetyMargin)
	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.count("POST /oauth/token"))
}

func TestToken_UnusableExpiresInReturnsTokenUncached(t *testing.T) {
	for _, expiresIn := range []string{`"abc"`, `null`, `-5`, `{}`} {
		fake, cache, _ := newTestCache(t)
		fake.handle("POST /oauth/token", jsonResponse(http.StatusOK, `{"access_token":"tok-u","expires_in":`+expiresIn+`}`))

		for i := 0; i < 2; i++ {
			tok, err := cache.Token(context.Background())
			require.NoError(t, err, expiresIn)
			assert.Equal(t, "tok-u", tok)
		}
		assert.Equal(t, 2, fake.count("POST /oauth/token"), expiresIn)
	}
}

func TestExpiresInSeconds(t *testing.T) {
	tests := map[string]int64{
		`3600`:     3600,
		`3600.0`:   3600,
		`"3599"`:   3599,
		`" 120.9"`: 120,
		`1e3`:      1000,
		`0`:        0,
		`"abc"`:    0,
		``:         0,
	}
	for raw, want := range tests {
		assert.Equal(t, want, expiresInSeconds([]byte(raw)), raw)
	}
}

func TestToken_Rejected(t *testing.T) {
	fake, cache, _ := newTestCache(t)
	fake.handle("POST /oauth/token", jsonResponse(http.StatusUnauthorized, `{"error":"invalid_client"}`))

	_, err := cache.Token(context.Background())

	var pErr *provider.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, provider.ErrAuthFailed, pErr.Code)
	assert.Equal(t, http.StatusUnauthorized, pErr.Status)
	assert.Contains(t, pErr.Body, "invalid_client")
}

func TestToken_FailureDiscardsCachedToken(t *testing.T) {
	fake, cache, clock := newTestCache(t)

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	fake.handle("POST /oauth/token", jsonResponse(http.StatusInternalServerError, `boom`))
	_, err = cache.Token(context.Background())
	require.Error(t, err)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.Empty(t, cache.token)
	assert.True(t, cache.expiresAt.IsZero())
}

func TestToken_MalformedBody(t *testing.T) {
	fake, cache, _ := newTestCache(t)
	fake.handle("POST /oauth/token", jsonResponse(http.StatusOK, `not json`))

	_, err := cache.Token(context.Background())

	var pErr *provider.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, provider.ErrAuthFailed, pErr.Code)
	assert.Equal(t, "not json", pErr.Body)
}

func TestToken_MissingCredentials(t *testing.T) {
	fake, srv := newFakeEfi(t)
	cfg := testCfg(srv.URL)
	cfg.Efi.ClientSecret = ""

	_, err := New(cfg, srv.Client()).Tokens().Token(context.Background())

	var pErr *provider.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, provider.ErrAuthFailed, pErr.Code)
	assert.Equal(t, 0, fake.count("POST /oauth/token"))
}

func TestToken_CredentialsTrimmed(t *testing.T) {
	fake, srv := newFakeEfi(t)
	cfg := testCfg(srv.URL)
	cfg.Efi.ClientID = "  client-id\n"
	cfg.Efi.ClientSecret = " client-secret "

	_, err := New(cfg, srv.Client()).Tokens().Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, basicAuth("client-id", "client-secret"), fake.header("POST /oauth/token", "Authorization"))
}

func TestToken_ConcurrentMissesShareOneRequest(t *testing.T) {
	fake, cache, _ := newTestCache(t)
	release := make(chan struct{})
	fake.handle("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		<-release
		jsonResponse(http.StatusOK, `{"access_token":"tok-c","expires_in":3600}`)(w, r)
	})

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := cache.Token(context.Background())
			assert.NoError(t, err)
			results[i] = tok
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, tok := range results {
		assert.Equal(t, "tok-c", tok)
	}
	assert.Equal(t, 1, fake.count("POST /oauth/token"))
}

func TestInvalidate(t *testing.T) {
	fake, cache, _ := newTestCache(t)

	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, fake.count("POST /oauth/token"))
}
