package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pixbridge/internal/domain/payment"
	middlewarex "pixbridge/internal/http/middleware"
	paymentsvc "pixbridge/internal/services/payment"

	"github.com/go-chi/chi/v5"
)

// chargeTimeout bounds the token, charge and QR code calls of one request.
const chargeTimeout = 60 * time.Second

type createChargeReq struct {
	Valor     json.RawMessage `json:"valor"`
	Descricao string          `json:"descricao"`
}

type createChargeResp struct {
	Sucesso       bool   `json:"sucesso"`
	TxID          string `json:"txid"`
	PixCopiaECola string `json:"pixCopiaECola"`
	ImagemQrcode  string `json:"imagemQrcode"`
	Location      string `json:"location"`
}

// CreateCharge handles POST /create-charge
func CreateCharge(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middlewarex.Logger(r.Context())

		var in createChargeReq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido.")
			return
		}
		amount, err := payment.ParseAmount(in.Valor)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), chargeTimeout)
		defer cancel()

		out, err := svc.CreateCharge(ctx, amount, in.Descricao)
		if err != nil {
			var vErr *payment.ValidationError
			if errors.As(err, &vErr) {
				writeError(w, http.StatusBadRequest, vErr.Message)
				return
			}
			withUpstream(logger.Error(), err).
				Str("amount", amount).
				Msg("create charge failed")
			writeError(w, http.StatusInternalServerError, "Falha ao criar cobrança Efí.")
			return
		}

		writeJSON(w, http.StatusOK, createChargeResp{
			Sucesso:       true,
			TxID:          out.Charge.TxID,
			PixCopiaECola: out.QRCode.CopyPaste,
			ImagemQrcode:  out.QRCode.Image,
			Location:      out.Charge.Location,
		})
	}
}

// CheckPayment handles GET /check-payment/{txid}
func CheckPayment(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txid := chi.URLParam(r, "txid")

		st, err := svc.CheckStatus(r.Context(), txid)
		if err != nil {
			middlewarex.Logger(r.Context()).Error().Err(err).Str("txid", txid).Msg("check payment failed")
			writeError(w, http.StatusInternalServerError, "Falha ao consultar pagamento.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]payment.Status{"status": st})
	}
}
