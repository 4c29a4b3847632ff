package util

import (
	"os"

	"github.com/pgschema/supaextract/internal/config"
	"github.com/spf13/cobra"
)

// ConfigFileEnv names the config file when --config is not given.
const ConfigFileEnv = "SUPAEXTRACT_CONFIG"

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// LoadConfig loads settings for cmd. The config file comes from --config,
// then SUPAEXTRACT_CONFIG; flags explicitly set on cmd override everything.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile == "" {
		cfgFile = GetEnvWithDefault(ConfigFileEnv, "")
	}
	return config.Load(cfgFile, cmd.Flags())
}

// PreRunELoadConfig creates a PreRunE function that loads settings into dst
// before the command runs.
func PreRunELoadConfig(dst **config.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cmd)
		if err != nil {
			return err
		}
		*dst = cfg
		return nil
	}
}

// ColorEnabled reports whether terminal colours should be used. NO_COLOR
// disables them regardless of flags.
func ColorEnabled(noColorFlag bool) bool {
	return !noColorFlag && GetEnvWithDefault("NO_COLOR", "") == ""
}
