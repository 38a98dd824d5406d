package config

import (
	"time"

	"github.com/Zachkp/portfolio/internal/reveal"
	"github.com/Zachkp/portfolio/internal/scrollspy"
	"github.com/Zachkp/portfolio/internal/typing"
)

// DefaultConfig returns a configuration that serves the embedded content on
// :8080 with a local SQLite file.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			Mode:          "release",
			TrackVisitors: true,
			Retention:     365 * 24 * time.Hour,
		},
		Database: DatabaseConfig{Path: "data/portfolio.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Typing: TypingConfig{
			Tick:       typing.DefaultTick,
			RolePause:  typing.DefaultRolePause,
			ResetPause: typing.DefaultResetPause,
		},
		Scroll: ScrollConfig{Lookahead: scrollspy.DefaultLookahead},
		Reveal: RevealConfig{
			Threshold:    reveal.DefaultOptions.Threshold,
			BottomMargin: reveal.DefaultOptions.BottomMargin,
		},
		Contact: ContactConfig{
			Provider:  ProviderEmailJS,
			DraftTTL:  time.Hour,
			MaxDrafts: 1024,
		},
	}
}
