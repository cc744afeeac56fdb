package efi

import (
	"bytes"
	"encoding/json"
	"errors"

	"pixbridge/internal/provider"
)

// ErrWebhookFormat is returned for payloads without a "pix" array.
var ErrWebhookFormat = errors.New("webhook payload has no pix array")

type pixItem struct {
	TxID       string          `json:"txid"`
	EndToEndID string          `json:"endToEndId"`
	Valor      json.RawMessage `json:"valor"`
	Horario    string          `json:"horario"`
}

// ParseWebhook converts an Efí PIX notification ({"pix":[...]}) into
// notifications. Elements that are not objects or carry no string txid are
// skipped; they do not invalidate the payload.
func ParseWebhook(body []byte) ([]provider.Notification, error) {
	var payload struct {
		Pix json.RawMessage `json:"pix"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrWebhookFormat
	}
	raw := bytes.TrimSpace(payload.Pix)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrWebhookFormat
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrWebhookFormat
	}

	out := make([]provider.Notification, 0, len(items))
	for _, it := range items {
		var p pixItem
		if err := json.Unmarshal(it, &p); err != nil || p.TxID == "" {
			continue
		}
		out = append(out, provider.Notification{
			TxID:       p.TxID,
			EndToEndID: p.EndToEndID,
			Amount:     string(bytes.Trim(p.Valor, `"`)),
			PaidAt:     p.Horario,
		})
	}
	return out, nil
}

// ParseWebhook implements provider.Gateway
func (c *Client) ParseWebhook(body []byte) ([]provider.Notification, error) {
	return ParseWebhook(body)
}
