package efi

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"pixbridge/internal/config"
)

// NewHTTPClient builds the outbound client for the gateway, presenting the
// configured client certificate (mTLS) when one is set.
func NewHTTPClient(cfg config.EfiCfg) (*http.Client, error) {
	hc := &http.Client{Timeout: cfg.Timeout}
	if cfg.CertFile == "" && cfg.KeyFile == "" {
		return hc, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	hc.Transport = transport
	return hc, nil
}
