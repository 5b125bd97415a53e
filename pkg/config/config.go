package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parse fills cfg from the process environment.
func parse[T any](cfg *T) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}
