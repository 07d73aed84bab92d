// Package config loads the tool configuration through viper. The file
// is optional; every knob has a default that matches the interactive
// latency budget the front-end was tuned against.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "sift"

// Config is the resolved configuration.
type Config struct {
	// Debounce toggles OnTyped coalescing in the session event loop.
	Debounce bool `json:"debounce"`
	// DebounceDelay is how long a burst of keystrokes is allowed to
	// extend before the pending query fires.
	DebounceDelay time.Duration `json:"debounceDelay"`
	// EmitInterval is the configured ceiling between streaming emissions.
	// The filter drivers do not read it; they use their own fixed 200 ms
	// ceiling.
	EmitInterval time.Duration `json:"emitInterval"`
	// InitTimeout caps a provider's initialization on session create.
	InitTimeout time.Duration `json:"initTimeout"`
	// DisplayCap is the top-K window size.
	DisplayCap int `json:"displayCap"`
	// Winwidth is the default display width when the front-end does not
	// send one.
	Winwidth int `json:"winwidth"`
	// RecentFiles points at the recently-opened list used for score
	// bonuses. Missing or unreadable files are ignored.
	RecentFiles string `json:"recentFiles"`
}

func setDefaults() {
	viper.SetDefault("debounce", true)
	viper.SetDefault("debounceDelay", 250*time.Millisecond)
	viper.SetDefault("emitInterval", 200*time.Millisecond)
	viper.SetDefault("initTimeout", 300*time.Millisecond)
	viper.SetDefault("displayCap", 100)
	viper.SetDefault("winwidth", 100)
	viper.SetDefault("recentFiles", "")
}

// Load reads the optional config file and environment overrides.
func Load() (*Config, error) {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is the normal case.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Debounce:      viper.GetBool("debounce"),
		DebounceDelay: viper.GetDuration("debounceDelay"),
		EmitInterval:  viper.GetDuration("emitInterval"),
		InitTimeout:   viper.GetDuration("initTimeout"),
		DisplayCap:    viper.GetInt("displayCap"),
		Winwidth:      viper.GetInt("winwidth"),
		RecentFiles:   viper.GetString("recentFiles"),
	}
	if cfg.DisplayCap <= 0 {
		cfg.DisplayCap = 100
	}
	return cfg, nil
}

// Default returns the built-in configuration without touching the
// filesystem, for tests and embedded use.
func Default() *Config {
	return &Config{
		Debounce:      true,
		DebounceDelay: 250 * time.Millisecond,
		EmitInterval:  200 * time.Millisecond,
		InitTimeout:   300 * time.Millisecond,
		DisplayCap:    100,
		Winwidth:      100,
	}
}
