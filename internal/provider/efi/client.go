package efi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pixbridge/internal/config"
	"pixbridge/internal/domain/credential"
	"pixbridge/internal/provider"
	"pixbridge/internal/provider/base"

	"github.com/rs/zerolog/log"
)

const providerName = "efi"

// Client implements the Efí Pay PIX API calls used by pixbridge
type Client struct {
	http   *base.HTTPClient
	tokens *TokenCache
	pixKey string
}

var (
	_ provider.Gateway          = (*Client)(nil)
	_ provider.WebhookRegistrar = (*Client)(nil)
)

// New creates a gateway client. hc may be nil, in which case a client with
// cfg.Efi.Timeout (and no client certificate) is used. Incomplete credentials
// are not an error here; token requests fail with auth_failed instead.
func New(cfg config.Cfg, hc *http.Client) *Client {
	httpClient := base.NewHTTPClient(providerName, cfg.GatewayBaseURL(), hc, cfg.Efi.Timeout)
	cred, err := credential.New(cfg.Efi.ClientID, cfg.Efi.ClientSecret)
	if err != nil {
		log.Warn().Err(err).Str("provider", providerName).Msg("gateway credentials incomplete")
	}

	return &Client{
		http:   httpClient,
		tokens: NewTokenCache(httpClient, cred),
		pixKey: cfg.Efi.PixKey,
	}
}

// Tokens exposes the client's token cache.
func (c *Client) Tokens() *TokenCache {
	return c.tokens
}

type cobRequest struct {
	Calendario struct {
		Expiracao int `json:"expiracao"`
	} `json:"calendario"`
	Valor struct {
		Original string `json:"original"`
	} `json:"valor"`
	Chave              string `json:"chave"`
	SolicitacaoPagador string `json:"solicitacaoPagador,omitempty"`
}

type cobResponse struct {
	TxID   string `json:"txid"`
	Status string `json:"status"`
	Loc    struct {
		ID       int64  `json:"id"`
		Location string `json:"location"`
	} `json:"loc"`
}

// CreateCharge issues an immediate charge (POST /v2/cob)
func (c *Client) CreateCharge(ctx context.Context, req provider.ChargeReq) (*provider.ChargeResp, error) {
	if err := base.ValidateChargeReq(&req); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var payload cobRequest
	payload.Calendario.Expiracao = req.ExpirationSeconds
	payload.Valor.Original = req.Amount
	payload.Chave = c.pixKey
	payload.SolicitacaoPagador = req.Description

	resp, err := c.http.PostJSON(ctx, "/v2/cob", payload, bearer(token))
	if err != nil {
		return nil, requestFailed("create charge", err)
	}
	if !resp.IsSuccess() {
		return nil, apiError("create charge", resp)
	}

	var out cobResponse
	if err := resp.UnmarshalJSON(&out); err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.ErrInvalidResponse,
			Message: "failed to parse charge response",
			Status:  resp.StatusCode,
			Body:    resp.String(),
			Err:     err,
		}
	}

	charge := &provider.ChargeResp{
		TxID:       out.TxID,
		LocationID: out.Loc.ID,
		Location:   out.Loc.Location,
		Status:     out.Status,
	}
	if err := base.ValidateChargeResp(charge, resp.Body); err != nil {
		return nil, err
	}

	c.logOperation("create_charge", map[string]interface{}{
		"txid":   charge.TxID,
		"loc_id": charge.LocationID,
		"amount": req.Amount,
	})
	return charge, nil
}

// QRCode fetches the QR code and copy-and-paste payload of a location
func (c *Client) QRCode(ctx context.Context, locationID int64) (*provider.QRCodeResp, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, fmt.Sprintf("/v2/loc/%d/qrcode", locationID), bearer(token))
	if err != nil {
		return nil, requestFailed("fetch qrcode", err)
	}
	if !resp.IsSuccess() {
		return nil, apiError("fetch qrcode", resp)
	}

	var out struct {
		QRCode           string `json:"qrcode"`
		ImagemQRCode     string `json:"imagemQrcode"`
		LinkVisualizacao string `json:"linkVisualizacao"`
	}
	if err := resp.UnmarshalJSON(&out); err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.ErrInvalidResponse,
			Message: "failed to parse qrcode response",
			Status:  resp.StatusCode,
			Body:    resp.String(),
			Err:     err,
		}
	}

	qr := &provider.QRCodeResp{
		QRCode:           out.QRCode,
		ImageQRCode:      out.ImagemQRCode,
		LinkVisualizacao: out.LinkVisualizacao,
	}
	if err := base.ValidateQRCodeResp(qr, resp.Body); err != nil {
		return nil, err
	}
	return qr, nil
}

// RegisterWebhook points the gateway's notifications for the configured PIX
// key at webhookURL (PUT /v2/webhook/{chave}). The gateway appends "/pix" to
// the URL it calls, so a trailing "?ignorar=" query is added to absorb it.
func (c *Client) RegisterWebhook(ctx context.Context, webhookURL string) error {
	if c.pixKey == "" {
		return &provider.ProviderError{Code: provider.ErrAPI, Message: "pix key not configured"}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	target := webhookTarget(webhookURL)
	headers := bearer(token)
	headers["x-skip-mtls-checking"] = "true"

	resp, err := c.http.PutJSON(ctx, "/v2/webhook/"+url.PathEscape(c.pixKey),
		map[string]string{"webhookUrl": target}, headers)
	if err != nil {
		return requestFailed("register webhook", err)
	}
	if !resp.IsSuccess() {
		return apiError("register webhook", resp)
	}

	c.logOperation("register_webhook", map[string]interface{}{
		"pix_key":     c.pixKey,
		"webhook_url": target,
	})
	return nil
}

func webhookTarget(u string) string {
	if strings.Contains(u, "?") {
		return u
	}
	return u + "?ignorar="
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func requestFailed(op string, err error) error {
	return &provider.ProviderError{
		Code:    provider.ErrRequestFailed,
		Message: op + " request failed",
		Err:     err,
	}
}

func apiError(op string, resp *base.HTTPResponse) error {
	return &provider.ProviderError{
		Code:    provider.ErrAPI,
		Message: op + " rejected by gateway",
		Status:  resp.StatusCode,
		Body:    resp.String(),
	}
}

// logOperation logs gateway operations for debugging
func (c *Client) logOperation(operation string, details map[string]interface{}) {
	log.Info().
		Str("provider", providerName).
		Str("operation", operation).
		Fields(details).
		Msg("Efí operation")
}
