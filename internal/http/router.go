package httpx

import (
	"net/http"

	"pixbridge/internal/http/handlers"
	middlewarex "pixbridge/internal/http/middleware"
	paymentsvc "pixbridge/internal/services/payment"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	PaymentService *paymentsvc.Service
}

// NewRouter creates the HTTP router
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middlewarex.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/create-charge", handlers.CreateCharge(deps.PaymentService))
	r.Get("/check-payment/{txid}", handlers.CheckPayment(deps.PaymentService))

	// The gateway calls the registered URL with "/pix" appended unless a
	// query string absorbs it, so both paths are accepted.
	r.Post("/webhook", handlers.PixWebhook(deps.PaymentService))
	r.Post("/webhook/pix", handlers.PixWebhook(deps.PaymentService))

	return r
}
