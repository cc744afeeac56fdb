package provider

import "context"

// Gateway is the subset of the PIX gateway API the charge flow depends on.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeReq) (*ChargeResp, error)
	QRCode(ctx context.Context, locationID int64) (*QRCodeResp, error)
	ParseWebhook(body []byte) ([]Notification, error)
}

// WebhookRegistrar configures where the gateway pushes payment notifications.
type WebhookRegistrar interface {
	RegisterWebhook(ctx context.Context, webhookURL string) error
}
