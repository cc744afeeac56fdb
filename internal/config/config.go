package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Env      string
	Port     string
	LogLevel string
}

type EfiCfg struct {
	ClientID     string
	ClientSecret string
	PixKey       string
	Sandbox      bool
	BaseURL      string // overrides the sandbox/production default when set
	CertFile     string
	KeyFile      string
	Timeout      time.Duration
	WebhookURL   string
}

type StoreCfg struct {
	Backend   string // memory, redis or postgres
	StatusTTL time.Duration
}

type RedisCfg struct {
	Addr     string
	Password string
	DB       int
}

type DBCfg struct{ DSN string }

type Cfg struct {
	App   AppCfg
	Efi   EfiCfg
	Store StoreCfg
	Redis RedisCfg
	DB    DBCfg
}

const (
	productionBaseURL = "https://pix.api.efipay.com.br"
	sandboxBaseURL    = "https://pix-h.api.efipay.com.br"
)

// Error reports configuration keys that are required but unset.
type Error struct {
	Missing []string
}

func (e *Error) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

// Load reads .env (if present) and the process environment.
func Load() Cfg {
	_ = godotenv.Load() // a missing .env is fine

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("APP_PORT", "")
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("EFI_SANDBOX", false)
	v.SetDefault("EFI_TIMEOUT", "30s")
	v.SetDefault("STORE_BACKEND", "memory")
	v.SetDefault("STATUS_TTL", "24h")
	v.SetDefault("REDIS_DB", 0)

	port := v.GetString("APP_PORT")
	if port == "" {
		port = v.GetString("PORT")
	}

	cfg := Cfg{
		App: AppCfg{
			Env:      v.GetString("APP_ENV"),
			Port:     port,
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Efi: EfiCfg{
			ClientID:     strings.TrimSpace(v.GetString("EFI_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(v.GetString("EFI_CLIENT_SECRET")),
			PixKey:       strings.TrimSpace(v.GetString("EFI_PIX_KEY")),
			Sandbox:      v.GetBool("EFI_SANDBOX"),
			BaseURL:      strings.TrimRight(v.GetString("EFI_BASE_URL"), "/"),
			CertFile:     v.GetString("EFI_CERT_FILE"),
			KeyFile:      v.GetString("EFI_KEY_FILE"),
			Timeout:      v.GetDuration("EFI_TIMEOUT"),
			WebhookURL:   strings.TrimSpace(v.GetString("WEBHOOK_URL")),
		},
		Store: StoreCfg{
			Backend:   strings.ToLower(v.GetString("STORE_BACKEND")),
			StatusTTL: v.GetDuration("STATUS_TTL"),
		},
		Redis: RedisCfg{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		DB: DBCfg{DSN: v.GetString("DB_DSN")},
	}
	return cfg
}

// GatewayBaseURL resolves the Efí PIX API root for the configured environment.
func (c Cfg) GatewayBaseURL() string {
	if c.Efi.BaseURL != "" {
		return c.Efi.BaseURL
	}
	if c.Efi.Sandbox {
		return sandboxBaseURL
	}
	return productionBaseURL
}

// Validate checks the settings the API server cannot start without.
func (c Cfg) Validate() error {
	var missing []string
	if c.Efi.ClientID == "" {
		missing = append(missing, "EFI_CLIENT_ID")
	}
	if c.Efi.ClientSecret == "" {
		missing = append(missing, "EFI_CLIENT_SECRET")
	}
	if c.Efi.PixKey == "" {
		missing = append(missing, "EFI_PIX_KEY")
	}
	if (c.Efi.CertFile == "") != (c.Efi.KeyFile == "") {
		missing = append(missing, "EFI_CERT_FILE and EFI_KEY_FILE (both or neither)")
	}
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	case "postgres":
		if c.DB.DSN == "" {
			missing = append(missing, "DB_DSN")
		}
	default:
		missing = append(missing, "STORE_BACKEND (memory|redis|postgres)")
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	return nil
}

// ValidateWebhook checks the settings needed to register the webhook URL.
func (c Cfg) ValidateWebhook() error {
	var missing []string
	if c.Efi.ClientID == "" {
		missing = append(missing, "EFI_CLIENT_ID")
	}
	if c.Efi.ClientSecret == "" {
		missing = append(missing, "EFI_CLIENT_SECRET")
	}
	if c.Efi.PixKey == "" {
		missing = append(missing, "EFI_PIX_KEY")
	}
	if c.Efi.WebhookURL == "" {
		missing = append(missing, "WEBHOOK_URL")
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	return nil
}
