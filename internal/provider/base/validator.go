package base

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"pixbridge/internal/domain/payment"
	"pixbridge/internal/provider"
)

var gatewayAmount = regexp.MustCompile(`^\d{1,10}\.\d{2}$`)

// ValidateChargeReq rejects requests the gateway is known to refuse, so they
// fail before a token is spent on them.
func ValidateChargeReq(req *provider.ChargeReq) error {
	if req.Amount == "" {
		return payment.ErrAmountRequired
	}
	if !gatewayAmount.MatchString(req.Amount) {
		return &payment.ValidationError{
			Field:   "valor",
			Message: fmt.Sprintf("O campo 'valor' é inválido: %s", req.Amount),
		}
	}
	if utf8.RuneCountInString(req.Description) > payment.MaxDescriptionLen {
		return &payment.ValidationError{
			Field:   "descricao",
			Message: fmt.Sprintf("O campo 'descricao' excede %d caracteres.", payment.MaxDescriptionLen),
		}
	}
	if req.ExpirationSeconds <= 0 {
		req.ExpirationSeconds = payment.ExpirationSeconds
	}
	return nil
}

// ValidateChargeResp checks that a created charge carries the identifiers the
// QR code lookup depends on.
func ValidateChargeResp(resp *provider.ChargeResp, body []byte) error {
	var missing []string
	if strings.TrimSpace(resp.TxID) == "" {
		missing = append(missing, "txid")
	}
	if resp.LocationID == 0 {
		missing = append(missing, "loc.id")
	}
	if len(missing) > 0 {
		return &provider.ProviderError{
			Code:    provider.ErrInvalidResponse,
			Message: "charge response missing " + strings.Join(missing, ", "),
			Body:    string(body),
		}
	}
	return nil
}

// ValidateQRCodeResp checks the QR code lookup returned something payable.
func ValidateQRCodeResp(resp *provider.QRCodeResp, body []byte) error {
	if strings.TrimSpace(resp.QRCode) == "" {
		return &provider.ProviderError{
			Code:    provider.ErrInvalidResponse,
			Message: "qrcode response missing qrcode",
			Body:    string(body),
		}
	}
	return nil
}
