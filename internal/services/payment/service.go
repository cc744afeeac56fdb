package payment

import (
	"context"
	"errors"
	"fmt"

	"pixbridge/internal/domain/payment"
	"pixbridge/internal/provider"
	"pixbridge/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// Service creates PIX charges and tracks whether they have been paid
type Service struct {
	gateway  provider.Gateway
	statuses repositories.StatusStore
}

// NewService creates a new charge service
func NewService(gateway provider.Gateway, statuses repositories.StatusStore) *Service {
	return &Service{
		gateway:  gateway,
		statuses: statuses,
	}
}

// ChargeResult is what a client needs to present a charge to the payer
type ChargeResult struct {
	Charge payment.Charge
	QRCode payment.QRCode
}

// ErrWebhookFormat is returned by HandleWebhook for payloads without a pix array.
var ErrWebhookFormat = &payment.ValidationError{Field: "pix", Message: "Formato inválido."}

// CreateCharge issues a charge for amount (already normalized, e.g. "10.00"),
// fetches its QR code and records it as PENDING.
func (s *Service) CreateCharge(ctx context.Context, amount, description string) (*ChargeResult, error) {
	if amount == "" {
		return nil, payment.ErrAmountRequired
	}

	req := provider.ChargeReq{
		Amount:            amount,
		Description:       payment.NormalizeDescription(description),
		ExpirationSeconds: payment.ExpirationSeconds,
	}
	resp, err := s.gateway.CreateCharge(ctx, req)
	if err != nil {
		return nil, wrap("create_charge", "gateway charge failed", err)
	}
	charge := payment.Charge{
		TxID:              resp.TxID,
		LocationID:        resp.LocationID,
		Location:          resp.Location,
		Amount:            req.Amount,
		Description:       req.Description,
		ExpirationSeconds: req.ExpirationSeconds,
		GatewayStatus:     resp.Status,
	}

	qr, err := s.gateway.QRCode(ctx, charge.LocationID)
	if err != nil {
		return nil, wrap("create_charge", fmt.Sprintf("qrcode for txid %s failed", charge.TxID), err)
	}

	if err := s.statuses.MarkPending(ctx, charge.TxID); err != nil {
		return nil, wrap("create_charge", "failed to record pending status", err)
	}

	log.Info().
		Str("txid", charge.TxID).
		Int64("loc_id", charge.LocationID).
		Str("amount", charge.Amount).
		Str("gateway_status", charge.GatewayStatus).
		Str("link", qr.LinkVisualizacao).
		Msg("charge created")

	return &ChargeResult{
		Charge: charge,
		QRCode: payment.QRCode{
			CopyPaste: qr.QRCode,
			Image:     qr.ImageQRCode,
			Link:      qr.LinkVisualizacao,
		},
	}, nil
}

// CheckStatus reports PENDING, PAID or NOT_FOUND for txid. A PAID status is
// delivered once: the read removes it, and later reads return NOT_FOUND, the
// same answer as for a txid that never existed.
func (s *Service) CheckStatus(ctx context.Context, txid string) (payment.Status, error) {
	st, err := s.statuses.Consume(ctx, txid)
	if err != nil {
		return "", wrap("check_status", "status lookup failed", err)
	}
	if st == payment.StatusPaid {
		log.Info().Str("txid", txid).Msg("paid status delivered")
	}
	return st, nil
}

// HandleWebhook marks every txid in the notification as PAID and returns how
// many were marked. Txids are not checked against issued charges.
func (s *Service) HandleWebhook(ctx context.Context, body []byte) (int, error) {
	notes, err := s.gateway.ParseWebhook(body)
	if err != nil {
		return 0, ErrWebhookFormat
	}

	var errs []error
	marked := 0
	for _, n := range notes {
		if err := s.statuses.MarkPaid(ctx, n.TxID); err != nil {
			errs = append(errs, err)
			continue
		}
		marked++
		log.Info().
			Str("txid", n.TxID).
			Str("end_to_end_id", n.EndToEndID).
			Str("amount", n.Amount).
			Msg("payment confirmed")
	}
	if len(errs) > 0 {
		return marked, wrap("handle_webhook", "failed to record paid status", errors.Join(errs...))
	}
	return marked, nil
}

// ServiceError represents a charge service error
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment service %s: %s (%v)", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("payment service %s: %s", e.Op, e.Message)
}

func (e ServiceError) Unwrap() error {
	return e.Err
}

// wrap keeps validation errors as they are so callers can report them to clients.
func wrap(op, msg string, err error) error {
	var vErr *payment.ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	return ServiceError{Op: op, Message: msg, Err: err}
}
