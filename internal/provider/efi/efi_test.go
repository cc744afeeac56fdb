package efi

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"pixbridge/internal/config"

	"github.com/stretchr/testify/require"
)

// fakeEfi is a scripted stand-in for the gateway that records every call.
type fakeEfi struct {
	t *testing.T

	mu       sync.Mutex
	calls    map[string]int
	bodies   map[string][]byte
	headers  map[string]http.Header
	handlers map[string]http.HandlerFunc
}

func newFakeEfi(t *testing.T) (*fakeEfi, *httptest.Server) {
	f := &fakeEfi{
		t:        t,
		calls:    map[string]int{},
		bodies:   map[string][]byte{},
		headers:  map[string]http.Header{},
		handlers: map[string]http.HandlerFunc{},
	}
	f.handle("POST /oauth/token", jsonResponse(http.StatusOK, `{"access_token":"tok-1","token_type":"Bearer","expires_in":3600,"scope":"cob.write"}`))
	f.handle("POST /v2/cob", jsonResponse(http.StatusCreated, `{"txid":"tx123","status":"ATIVA","loc":{"id":7,"location":"pix.example.com/qr/v2/7"}}`))
	f.handle("GET /v2/loc/7/qrcode", jsonResponse(http.StatusOK, `{"qrcode":"000201-copia-e-cola","imagemQrcode":"data:image/png;base64,AAAA","linkVisualizacao":"https://pix.example.com/v/7"}`))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.EscapedPath()
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.calls[key]++
		f.bodies[key] = body
		f.headers[key] = r.Header.Clone()
		h, ok := f.handlers[key]
		f.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeEfi) handle(key string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key] = h
}

func (f *fakeEfi) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeEfi) body(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var m map[string]any
	require.NoError(f.t, json.Unmarshal(f.bodies[key], &m))
	return m
}

func (f *fakeEfi) header(key, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[key].Get(name)
}

func jsonResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func testCfg(baseURL string) config.Cfg {
	return config.Cfg{
		Efi: config.EfiCfg{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			PixKey:       "pix@example.com",
			BaseURL:      baseURL,
		},
	}
}

func basicAuth(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func hasBearer(h string) bool {
	return strings.HasPrefix(h, "Bearer ")
}
