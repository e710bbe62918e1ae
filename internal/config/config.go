// Package config provides configuration management for the stock checker.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

// Config holds all application configuration. The checker treats a loaded
// Config as an immutable snapshot for the duration of a run.
type Config struct {
	Checker       CheckerConfig      `mapstructure:"checker"`
	Pincodes      []string           `mapstructure:"pincodes"`
	Products      map[string]Product `mapstructure:"products"`
	Alerts        AlertSettings      `mapstructure:"alerts"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// CheckerConfig holds orchestrator configuration.
type CheckerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	Schedule        string        `mapstructure:"schedule"` // cron expression; overrides Interval when set
	Concurrency     int           `mapstructure:"concurrency"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	RetryMaxDelay   time.Duration `mapstructure:"retry_max_delay"`
	BackoffFactor   float64       `mapstructure:"backoff_factor"`
	PlatformSpacing time.Duration `mapstructure:"platform_spacing"`

	// Per-platform spacing overrides, keyed by platform name.
	PlatformSpacingOverrides map[string]time.Duration `mapstructure:"platform_spacing_overrides"`

	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

// Product is one configured product to monitor.
type Product struct {
	URL      string `mapstructure:"url"`
	Platform string `mapstructure:"platform"` // optional; detected from URL when empty
}

// AlertSettings gates which alert kinds the dispatcher forwards. Detection
// always runs for all kinds; these toggles act only at dispatch time.
type AlertSettings struct {
	SendAlerts          bool `mapstructure:"send_alerts"`
	AlertOnStatusChange bool `mapstructure:"alert_on_status_change"`
	AlertOnLowStock     bool `mapstructure:"alert_on_low_stock"`
	AlertOnOOS          bool `mapstructure:"alert_on_oos"`
	AlertOnBackInStock  bool `mapstructure:"alert_on_back_in_stock"`
	AlertOnPriceChange  bool `mapstructure:"alert_on_price_change"`
	SendSummary         bool `mapstructure:"send_summary"`
}

// NotificationConfig holds notification channel configuration.
type NotificationConfig struct {
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

// WhatsAppConfig holds Twilio WhatsApp configuration.
type WhatsAppConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/pinstock"
	}
	return filepath.Join(home, ".config", "pinstock")
}

// DefaultDBPath returns the default status store path.
func DefaultDBPath() string {
	return filepath.Join(DefaultConfigDir(), "pinstock.db")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return nil, fmt.Errorf("creating config template: %w", err)
			}
		} else {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("checker.interval", "10m")
	v.SetDefault("checker.concurrency", 4)
	v.SetDefault("checker.request_timeout", "30s")
	v.SetDefault("checker.max_retries", 3)
	v.SetDefault("checker.retry_delay", "5s")
	v.SetDefault("checker.retry_max_delay", "60s")
	v.SetDefault("checker.backoff_factor", 2.0)
	v.SetDefault("checker.platform_spacing", "1s")
	v.SetDefault("checker.breaker_threshold", 5)
	v.SetDefault("checker.breaker_cooldown", "2m")
	v.SetDefault("alerts.send_alerts", true)
	v.SetDefault("alerts.alert_on_status_change", true)
	v.SetDefault("alerts.alert_on_low_stock", true)
	v.SetDefault("alerts.alert_on_oos", true)
	v.SetDefault("alerts.alert_on_back_in_stock", true)
	v.SetDefault("alerts.alert_on_price_change", true)
	v.SetDefault("alerts.send_summary", false)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Notifications.WhatsApp.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Notifications.WhatsApp.AuthToken = v
	}
	if v := os.Getenv("TWILIO_WHATSAPP_NUMBER"); v != "" {
		cfg.Notifications.WhatsApp.From = v
	}
	if v := os.Getenv("RECIPIENT_WHATSAPP_NUMBER"); v != "" {
		cfg.Notifications.WhatsApp.To = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
}

// Validate validates the configuration. Individually broken targets are
// reported by Targets(); Validate catches the errors that make a run
// pointless before it starts.
func (c *Config) Validate() error {
	if c.Checker.Concurrency < 1 {
		return apperrors.NewValidationError("checker.concurrency", c.Checker.Concurrency, "must be at least 1")
	}
	if c.Checker.MaxRetries < 1 {
		return apperrors.NewValidationError("checker.max_retries", c.Checker.MaxRetries, "must be at least 1")
	}
	if c.Checker.BackoffFactor < 1 {
		return apperrors.NewValidationError("checker.backoff_factor", c.Checker.BackoffFactor, "must be at least 1")
	}
	if c.Checker.Interval < 0 {
		return apperrors.NewValidationError("checker.interval", c.Checker.Interval, "must not be negative")
	}
	for _, pin := range c.Pincodes {
		if !models.ValidPincode(pin) {
			return apperrors.NewValidationError("pincodes", pin, "not a valid 6-digit pincode")
		}
	}
	return nil
}

// Targets expands the configured product×pincode matrix into concrete
// targets. Products whose platform cannot be resolved are skipped and
// returned separately so the caller can log them; an empty result is the
// caller's fatal-configuration signal.
func (c *Config) Targets() (targets []models.Target, skipped []string) {
	for name, product := range c.Products {
		if product.URL == "" {
			skipped = append(skipped, fmt.Sprintf("%s: no URL configured", name))
			continue
		}

		platform := models.DetectPlatform(product.URL)
		if product.Platform != "" {
			p, err := models.ParsePlatform(product.Platform)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			platform = p
		}
		if platform == models.PlatformUnknown {
			skipped = append(skipped, fmt.Sprintf("%s: cannot detect platform from URL %s", name, product.URL))
			continue
		}

		for _, pincode := range c.Pincodes {
			targets = append(targets, models.Target{
				ProductID:   models.ProductSlug(name),
				ProductName: name,
				Platform:    platform,
				ProductURL:  product.URL,
				Pincode:     pincode,
			})
		}
	}
	return targets, skipped
}

// SpacingFor returns the politeness spacing for a platform.
func (c *CheckerConfig) SpacingFor(p models.Platform) time.Duration {
	if d, ok := c.PlatformSpacingOverrides[string(p)]; ok && d > 0 {
		return d
	}
	if c.PlatformSpacing > 0 {
		return c.PlatformSpacing
	}
	return time.Second
}
