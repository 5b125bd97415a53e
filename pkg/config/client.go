package config

import (
	"os"
	"path/filepath"
	"time"
)

// ClientConfig configures the terminal client.
type ClientConfig struct {
	APIBaseURL string        `env:"COMPASS_API_URL,required,notEmpty"`
	StateFile  string        `env:"COMPASS_STATE_FILE"`
	Timeout    time.Duration `env:"COMPASS_TIMEOUT" envDefault:"15s"`
	LogLevel   string        `env:"COMPASS_LOG_LEVEL" envDefault:"warn"`
}

// LoadClientConfig reads ClientConfig from the environment. The API base URL is
// mandatory.
func LoadClientConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if err := parse(&cfg); err != nil {
		return ClientConfig{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *ClientConfig) applyDefaults() {
	if c.StateFile != "" {
		return
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	c.StateFile = filepath.Join(home, ".coursecompass", "state.json")
}
