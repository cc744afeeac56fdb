package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"pixbridge/internal/provider"

	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"erro": msg})
}

// withUpstream adds the gateway's status and body, when err carries them, to
// a log event. Those details stay in the logs and never reach the client.
func withUpstream(ev *zerolog.Event, err error) *zerolog.Event {
	var pErr *provider.ProviderError
	if errors.As(err, &pErr) {
		ev = ev.Str("provider_code", pErr.Code)
		if pErr.Status != 0 {
			ev = ev.Int("upstream_status", pErr.Status)
		}
		if pErr.Body != "" {
			ev = ev.Str("upstream_body", pErr.Body)
		}
	}
	return ev.Err(err)
}
