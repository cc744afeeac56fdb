package cli

import (
	"testing"

	"pixbridge/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["register-webhook"])
	assert.NotNil(t, registerWebhookCmd.Flags().Lookup("url"))
}

func TestSetupLogger(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	setupLogger(config.AppCfg{Env: "production", LogLevel: "DEBUG"})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	setupLogger(config.AppCfg{Env: "production", LogLevel: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestRegisterWebhook_RequiresURL(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = config.Cfg{Efi: config.EfiCfg{ClientID: "a", ClientSecret: "b", PixKey: "c"}}

	err := runRegisterWebhook(registerWebhookCmd, nil)

	var cfgErr *config.Error
	assert.ErrorAs(t, err, &cfgErr)
}
