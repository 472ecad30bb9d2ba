// Package conf loads runtime configuration from the environment.
package conf

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ConfigError represents a missing or invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// VaultConfig locates the vault and its working directories.
type VaultConfig struct {
	Root string `env:"VAULT_PATH" envDefault:"."`
}

func (v VaultConfig) InboxDir() string    { return filepath.Join(v.Root, "Inbox") }
func (v VaultConfig) PendingDir() string  { return filepath.Join(v.Root, "Needs_Action") }
func (v VaultConfig) ApprovedDir() string { return filepath.Join(v.Root, "Approved") }
func (v VaultConfig) DoneDir() string     { return filepath.Join(v.Root, "Done") }
func (v VaultConfig) LogsDir() string     { return filepath.Join(v.Root, "Logs") }
func (v VaultConfig) StateDir() string    { return filepath.Join(v.Root, "State") }

// WatchConfig sets the polling cadences and the keyword filter shared by the
// scraping channels.
type WatchConfig struct {
	FSIntervalSec       int      `env:"FS_CHECK_INTERVAL" envDefault:"5"`
	MailIntervalSec     int      `env:"MAIL_CHECK_INTERVAL" envDefault:"120"`
	ScrapeIntervalSec   int      `env:"SCRAPE_CHECK_INTERVAL" envDefault:"30"`
	DispatchIntervalSec int      `env:"DISPATCH_INTERVAL" envDefault:"10"`
	Keywords            []string `env:"WATCH_KEYWORDS" envDefault:"urgent,asap,invoice,payment,help,question,project"`
}

func (w WatchConfig) FSInterval() time.Duration   { return time.Duration(w.FSIntervalSec) * time.Second }
func (w WatchConfig) MailInterval() time.Duration { return time.Duration(w.MailIntervalSec) * time.Second }
func (w WatchConfig) ScrapeInterval() time.Duration {
	return time.Duration(w.ScrapeIntervalSec) * time.Second
}
func (w WatchConfig) DispatchInterval() time.Duration {
	return time.Duration(w.DispatchIntervalSec) * time.Second
}

// LarkConfig configures the push-driven chat channel and its digest buffer.
type LarkConfig struct {
	AppID             string   `env:"LARK_APP_ID"`
	AppSecret         string   `env:"LARK_APP_SECRET"`
	ChatIDs           []string `env:"LARK_CHAT_IDS"`
	QueueSize         int      `env:"LARK_QUEUE_SIZE" envDefault:"256"`
	BufferDBPath      string   `env:"BUFFER_DB_PATH"`
	DigestIntervalMin int      `env:"DIGEST_INTERVAL_MINUTES" envDefault:"60"`
}

// Enabled reports whether the chat channel is configured at all.
func (l LarkConfig) Enabled() bool { return l.AppID != "" }

func (l LarkConfig) DigestInterval() time.Duration {
	return time.Duration(l.DigestIntervalMin) * time.Minute
}

// MailConfig holds outbound mail settings.
type MailConfig struct {
	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

func (m MailConfig) Addr() string { return fmt.Sprintf("%s:%d", m.SMTPHost, m.SMTPPort) }

// SocialConfig holds credentials for publishing social updates.
type SocialConfig struct {
	AccessToken string `env:"LINKEDIN_ACCESS_TOKEN"`
	PersonURN   string `env:"LINKEDIN_PERSON_URN"`
}

// Config represents the full application configuration.
type Config struct {
	Vault  VaultConfig
	Watch  WatchConfig
	Lark   LarkConfig
	Mail   MailConfig
	Social SocialConfig
	DryRun bool `env:"DRY_RUN" envDefault:"true"`
	Debug  bool `env:"DEBUG" envDefault:"false"`
}

// Load parses configuration from environment variables and resolves derived
// defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Lark.BufferDBPath == "" {
		cfg.Lark.BufferDBPath = filepath.Join(cfg.Vault.StateDir(), "buffer.db")
	}
	return cfg, nil
}

// ValidateLark checks that the chat channel has complete credentials. Only
// called when the channel is enabled.
func (c *Config) ValidateLark() error {
	if c.Lark.AppID == "" || c.Lark.AppSecret == "" {
		return &ConfigError{Field: "LARK_APP_ID/LARK_APP_SECRET", Message: "required for chat watching"}
	}
	return nil
}

// ValidateDispatch checks that live dispatch has the outbound credentials it
// needs. Dry-run mode needs none.
func (c *Config) ValidateDispatch() error {
	if c.DryRun {
		return nil
	}
	if c.Mail.SMTPHost == "" {
		return &ConfigError{Field: "SMTP_HOST", Message: "required when DRY_RUN is off"}
	}
	if c.Mail.Username == "" {
		return &ConfigError{Field: "SMTP_USERNAME", Message: "required when DRY_RUN is off"}
	}
	if c.Mail.From == "" {
		return &ConfigError{Field: "SMTP_FROM", Message: "required when DRY_RUN is off"}
	}
	return nil
}

// ValidateSocial checks social posting credentials for live mode. Social
// posting is optional: both values absent disables it, but a half-configured
// pair fails fast rather than erroring at dispatch time.
func (c *Config) ValidateSocial() error {
	if c.DryRun {
		return nil
	}
	if c.Social.AccessToken == "" && c.Social.PersonURN == "" {
		return nil
	}
	if c.Social.AccessToken == "" {
		return &ConfigError{Field: "LINKEDIN_ACCESS_TOKEN", Message: "required when LINKEDIN_PERSON_URN is set"}
	}
	if c.Social.PersonURN == "" {
		return &ConfigError{Field: "LINKEDIN_PERSON_URN", Message: "required when LINKEDIN_ACCESS_TOKEN is set"}
	}
	return nil
}

// MonitoredChats returns the chat ID allowlist as a set. An empty set means
// every chat is monitored.
func (c *Config) MonitoredChats() map[string]bool {
	set := make(map[string]bool, len(c.Lark.ChatIDs))
	for _, id := range c.Lark.ChatIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = true
		}
	}
	return set
}
