package handlers

import (
	"errors"
	"io"
	"net/http"

	"pixbridge/internal/domain/payment"
	middlewarex "pixbridge/internal/http/middleware"
	paymentsvc "pixbridge/internal/services/payment"
)

// maxWebhookBody caps the notification payload read into memory.
const maxWebhookBody = 1 << 20

// PixWebhook handles the gateway's payment notifications. It acknowledges
// with 200 whenever the payload is well formed, even if no txid was marked.
func PixWebhook(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middlewarex.Logger(r.Context())

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "Formato inválido.", http.StatusBadRequest)
			return
		}

		marked, err := svc.HandleWebhook(r.Context(), body)
		if err != nil {
			var vErr *payment.ValidationError
			if errors.As(err, &vErr) {
				logger.Warn().Int("body_length", len(body)).Msg("webhook payload rejected")
				http.Error(w, vErr.Message, http.StatusBadRequest)
				return
			}
			logger.Error().Err(err).Int("marked", marked).Msg("webhook processing failed")
			http.Error(w, "Falha ao processar webhook.", http.StatusInternalServerError)
			return
		}

		logger.Info().Int("marked", marked).Msg("webhook received")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
