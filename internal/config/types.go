package config

import "time"

// Config is the top-level site configuration, corresponding to portfolio.yml.
type Config struct {
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Database DatabaseConfig `yaml:"database" koanf:"database"`
	Log      LogConfig      `yaml:"log" koanf:"log"`
	Content  ContentConfig  `yaml:"content" koanf:"content"`
	Typing   TypingConfig   `yaml:"typing" koanf:"typing"`
	Scroll   ScrollConfig   `yaml:"scroll" koanf:"scroll"`
	Reveal   RevealConfig   `yaml:"reveal" koanf:"reveal"`
	Contact  ContactConfig  `yaml:"contact" koanf:"contact"`
	Admin    AdminConfig    `yaml:"admin" koanf:"admin"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" koanf:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode" koanf:"mode"`
	// TrackVisitors enables the hashed-IP visitor log.
	TrackVisitors bool `yaml:"track_visitors" koanf:"track_visitors"`
	// Retention is how long visitor rows are kept.
	Retention time.Duration `yaml:"retention" koanf:"retention"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

type ContentConfig struct {
	// File overrides the embedded site content when set.
	File string `yaml:"file" koanf:"file"`
}

type TypingConfig struct {
	Tick       time.Duration `yaml:"tick" koanf:"tick"`
	RolePause  time.Duration `yaml:"role_pause" koanf:"role_pause"`
	ResetPause time.Duration `yaml:"reset_pause" koanf:"reset_pause"`
}

type ScrollConfig struct {
	Lookahead float64 `yaml:"lookahead" koanf:"lookahead"`
}

type RevealConfig struct {
	Threshold    float64 `yaml:"threshold" koanf:"threshold"`
	BottomMargin float64 `yaml:"bottom_margin" koanf:"bottom_margin"`
}

// ProviderType selects how contact messages are delivered.
type ProviderType string

const (
	ProviderEmailJS ProviderType = "emailjs"
	ProviderSMTP    ProviderType = "smtp"
)

type ContactConfig struct {
	Provider   ProviderType `yaml:"provider" koanf:"provider"`
	ServiceID  string       `yaml:"service_id" koanf:"service_id"`
	TemplateID string       `yaml:"template_id" koanf:"template_id"`
	PublicKey  string       `yaml:"public_key" koanf:"public_key"`
	PrivateKey string       `yaml:"private_key" koanf:"private_key"`
	Endpoint   string       `yaml:"endpoint" koanf:"endpoint"`
	// SMTPUser is the account used when Provider is smtp.
	SMTPUser string `yaml:"smtp_user" koanf:"smtp_user"`
	// DraftTTL is how long an idle visitor's unsent draft is kept.
	DraftTTL time.Duration `yaml:"draft_ttl" koanf:"draft_ttl"`
	// MaxDrafts caps the number of visitors with a kept draft.
	MaxDrafts int `yaml:"max_drafts" koanf:"max_drafts"`
}

type AdminConfig struct {
	Username string `yaml:"username" koanf:"username"`
	Password string `yaml:"password" koanf:"password"`
}
