// Package config holds the viewer's root configuration.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Source SourceConfig `json:"source"`
	Reload ReloadConfig `json:"reload"`
	Search SearchConfig `json:"search"`
	UI     UIConfig     `json:"ui"`
}

// SourceConfig selects and parameterizes the session data source.
type SourceConfig struct {
	// Mode is "local" or "gateway".
	Mode string `json:"mode"`
	// DataDir is the local session directory; "" means ~/.agentview/sessions.
	DataDir string `json:"dataDir"`
	// GatewayURL is the gateway base URL for mode "gateway".
	GatewayURL string `json:"gatewayUrl"`
	// PrefsPath is the display preference database; "" means
	// ~/.agentview/prefs.db.
	PrefsPath string `json:"prefsPath"`
}

// ReloadConfig tunes how reloads coalesce.
type ReloadConfig struct {
	// Debounce is the quiet period after a new-output notice before a
	// reload runs.
	Debounce Duration `json:"debounce"`
}

// SearchConfig tunes the search bar.
type SearchConfig struct {
	// Debounce is the typing quiet period before a query takes effect.
	Debounce Duration `json:"debounce"`
}

// UIConfig configures appearance.
type UIConfig struct {
	ShowFooter bool `json:"showFooter"`
	// Markdown renders assistant text through the markdown renderer.
	Markdown bool `json:"markdown"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Mode: "local",
		},
		Reload: ReloadConfig{
			Debounce: Duration(200 * time.Millisecond),
		},
		Search: SearchConfig{
			Debounce: Duration(300 * time.Millisecond),
		},
		UI: UIConfig{
			ShowFooter: true,
			Markdown:   true,
		},
	}
}

// Validate corrects out-of-range values in place.
func (c *Config) Validate() error {
	if c.Source.Mode != "local" && c.Source.Mode != "gateway" {
		return fmt.Errorf("unknown source mode %q", c.Source.Mode)
	}
	if c.Source.Mode == "gateway" && c.Source.GatewayURL == "" {
		return fmt.Errorf("gateway mode requires gatewayUrl")
	}
	if c.Reload.Debounce <= 0 {
		c.Reload.Debounce = Duration(200 * time.Millisecond)
	}
	if c.Search.Debounce <= 0 {
		c.Search.Debounce = Duration(300 * time.Millisecond)
	}
	return nil
}

// Duration is a time.Duration that unmarshals from either a duration
// string ("300ms") or nanoseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := json.Unmarshal(data, &ns); err != nil {
		return fmt.Errorf("duration must be a string or integer")
	}
	*d = Duration(ns)
	return nil
}
