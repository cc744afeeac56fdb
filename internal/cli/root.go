package cli

import (
	"os"
	"strings"
	"time"

	"pixbridge/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg config.Cfg

var rootCmd = &cobra.Command{
	Use:   "pixbridge",
	Short: "PIX charge broker for the Efí Pay API",
	Long:  "Creates PIX charges through Efí Pay, serves their QR codes and tracks payment status from webhook notifications.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		cfg = config.Load()
		setupLogger(cfg.App)
	},
	SilenceUsage: true,
	// serve is the default
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupLogger(app config.AppCfg) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(app.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if app.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
