// Package config loads the site configuration from a YAML file, the
// environment and a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/reveal"
	"github.com/Zachkp/portfolio/internal/typing"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: PORTFOLIO_CONTACT__SERVICE_ID sets contact.service_id.
const EnvPrefix = "PORTFOLIO_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// PORT is what hosting platforms set; it wins over the file.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validModes = map[string]bool{"debug": true, "release": true, "test": true}

var validProviders = map[ProviderType]bool{
	ProviderEmailJS: true,
	ProviderSMTP:    true,
}

// Validate checks that the configuration contains usable values. Contact
// credentials may be empty; the contact form reports that when used.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("invalid server.mode %q: must be one of debug, release, test", c.Server.Mode)
	}
	if c.Server.Retention < 0 {
		return fmt.Errorf("server.retention must be non-negative")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if err := c.Script("", "").Validate(); err != nil {
		return err
	}
	if c.Reveal.Threshold < 0 || c.Reveal.Threshold > 1 {
		return fmt.Errorf("reveal.threshold must be between 0 and 1")
	}
	if !validProviders[c.Contact.Provider] {
		return fmt.Errorf("invalid contact.provider %q: must be one of emailjs, smtp", c.Contact.Provider)
	}
	if c.Contact.DraftTTL <= 0 || c.Contact.MaxDrafts <= 0 {
		return fmt.Errorf("contact.draft_ttl and contact.max_drafts must be positive")
	}
	return nil
}

// SlogLevel parses the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}
	return level, nil
}

// Script returns the typing script for name and role with the configured
// timings.
func (c *Config) Script(name, role string) typing.Script {
	return typing.Script{
		Name:       name,
		Role:       role,
		Tick:       c.Typing.Tick,
		RolePause:  c.Typing.RolePause,
		ResetPause: c.Typing.ResetPause,
	}
}

// RevealOptions returns the configured reveal thresholds.
func (c *Config) RevealOptions() reveal.Options {
	return reveal.Options{Threshold: c.Reveal.Threshold, BottomMargin: c.Reveal.BottomMargin}
}

// Credentials returns the delivery credentials for the contact gate.
func (c *Config) Credentials() contact.Credentials {
	return contact.Credentials{
		ServiceID:  c.Contact.ServiceID,
		TemplateID: c.Contact.TemplateID,
		PublicKey:  c.Contact.PublicKey,
	}
}

// Sender builds the configured delivery provider.
func (c *Config) Sender() contact.Sender {
	if c.Contact.Provider == ProviderSMTP {
		return contact.NewSMTPSender(c.Contact.SMTPUser)
	}
	return contact.NewEmailJSSender(c.Contact.Endpoint, c.Contact.PrivateKey)
}
