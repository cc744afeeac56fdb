package provider

import "fmt"

// ChargeReq is what the charge service asks the gateway to issue.
type ChargeReq struct {
	Amount            string // decimal with two fraction digits, e.g. "10.00"
	Description       string
	ExpirationSeconds int
}

// ChargeResp carries the identifiers returned for a new charge.
type ChargeResp struct {
	TxID       string
	LocationID int64
	Location   string
	Status     string
}

// QRCodeResp is the payable form of a charge location.
type QRCodeResp struct {
	QRCode           string
	ImageQRCode      string
	LinkVisualizacao string
}

// ProviderError is returned for every failed gateway interaction. Status and
// Body hold the upstream response for operator logs; they are never meant for
// API clients.
type ProviderError struct {
	Code    string
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *ProviderError) Error() string {
	msg := e.Code + ": " + e.Message
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Error codes
const (
	ErrAuthFailed      = "auth_failed"      // token exchange failed or credentials missing
	ErrRequestFailed   = "request_failed"   // transport error, no response
	ErrAPI             = "api_error"        // non-2xx from the gateway
	ErrInvalidResponse = "invalid_response" // 2xx with an unexpected shape
)

// Notification is one settled PIX reported by the gateway webhook.
type Notification struct {
	TxID       string
	EndToEndID string
	Amount     string
	PaidAt     string
}
