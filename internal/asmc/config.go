package asmc

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds ambient defaults the CLI seeds from ~/.asmc.yaml and
// ASMC_*-prefixed environment variables. Flags passed on the command line
// always take precedence over these. Grounded on cmd/root.go's
// initConfig, generalized from a single global file name to this
// package's own config struct.
type Config struct {
	DefaultFormat string `mapstructure:"default_format"`
	Use16         bool   `mapstructure:"use16"`
	Color         bool   `mapstructure:"color"`
}

// DefaultConfig mirrors the assembler's own hardcoded defaults
// (ELF output, 32-bit, color on) so a missing config file changes nothing.
func DefaultConfig() Config {
	return Config{DefaultFormat: "elf", Use16: false, Color: true}
}

// LoadConfig reads ~/.asmc.yaml (if present) and ASMC_*-prefixed
// environment variables into a Config, falling back to DefaultConfig for
// any field neither source sets.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("ASMC")
	v.AutomaticEnv()
	v.SetDefault("default_format", cfg.DefaultFormat)
	v.SetDefault("use16", cfg.Use16)
	v.SetDefault("color", cfg.Color)

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".asmc")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return cfg, fmt.Errorf("asmc: reading config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("asmc: parsing config: %w", err)
	}
	return cfg, nil
}
