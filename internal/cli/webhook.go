package cli

import (
	"context"
	"errors"
	"time"

	"pixbridge/internal/provider"
	"pixbridge/internal/provider/efi"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var webhookURL string

var registerWebhookCmd = &cobra.Command{
	Use:   "register-webhook",
	Short: "Register the webhook URL for the configured PIX key (run once)",
	Long: "Points the Efí notifications for EFI_PIX_KEY at WEBHOOK_URL. The application " +
		"needs the webhook.write scope. mTLS checking is skipped for the registered URL.",
	RunE: runRegisterWebhook,
}

func init() {
	registerWebhookCmd.Flags().StringVar(&webhookURL, "url", "", "webhook URL (defaults to WEBHOOK_URL)")
	rootCmd.AddCommand(registerWebhookCmd)
}

func runRegisterWebhook(cmd *cobra.Command, _ []string) error {
	if webhookURL != "" {
		cfg.Efi.WebhookURL = webhookURL
	}
	if err := cfg.ValidateWebhook(); err != nil {
		return err
	}

	hc, err := efi.NewHTTPClient(cfg.Efi)
	if err != nil {
		return err
	}
	var registrar provider.WebhookRegistrar = efi.New(cfg, hc)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	log.Info().
		Str("pix_key", cfg.Efi.PixKey).
		Str("webhook_url", cfg.Efi.WebhookURL).
		Msg("registering webhook")

	if err := registrar.RegisterWebhook(ctx, cfg.Efi.WebhookURL); err != nil {
		ev := log.Error().Err(err)
		var pErr *provider.ProviderError
		if errors.As(err, &pErr) {
			ev = ev.Int("upstream_status", pErr.Status).Str("upstream_body", pErr.Body)
		}
		ev.Msg("webhook registration failed; check EFI_CLIENT_ID, EFI_CLIENT_SECRET, EFI_PIX_KEY and the webhook.write scope")
		return err
	}

	log.Info().Msg("webhook registered")
	return nil
}
