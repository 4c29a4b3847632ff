// Package config loads supaextract settings from defaults, an optional
// supaextract.yaml file, SUPAEXTRACT_* environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = "supaextract.yaml"
	// FileNameAlt is the alternate name of the config file.
	FileNameAlt = "supaextract.yml"

	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "SUPAEXTRACT_"

	// DefaultTimeout bounds each remote procedure call.
	DefaultTimeout = 30 * time.Second
	// DefaultOutput is the file name the export script is written to.
	DefaultOutput = "supabase_export.sql"
)

// Supabase client variables, honoured when no other source sets url or key.
const (
	EnvSupabaseURL = "SUPABASE_URL"
	EnvSupabaseKey = "SUPABASE_KEY"
)

// Config holds every setting shared by the CLI commands.
type Config struct {
	URL                 string        `koanf:"url"`
	Key                 string        `koanf:"key"`
	Timeout             time.Duration `koanf:"timeout"`
	Output              string        `koanf:"output"`
	IncludeDropPolicies bool          `koanf:"include_drop_policies"`

	Exclusions ExclusionConfig `koanf:",squash"`

	// FileUsed is the config file that was read, empty when none was found.
	FileUsed string `koanf:"-"`
}

// Load builds a Config. cfgFile may be empty, in which case supaextract.yaml
// or supaextract.yml in the working directory is used when present. Only
// flags that were explicitly changed override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := DefaultExclusions()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"timeout":                  DefaultTimeout,
		"output":                   DefaultOutput,
		"include_drop_policies":    false,
		"exclude_function_schemas": defaults.FunctionSchemas,
		"exclude_trigger_schemas":  defaults.TriggerSchemas,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	fileUsed, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", fileUsed, err)
		}
	}

	// 3. Environment: SUPAEXTRACT_INCLUDE_DROP_POLICIES -> include_drop_policies.
	// Schema lists are comma separated.
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if isListKey(key) {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = fileUsed

	if cfg.URL == "" {
		cfg.URL = os.Getenv(EnvSupabaseURL)
	}
	if cfg.Key == "" {
		cfg.Key = os.Getenv(EnvSupabaseKey)
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Key = strings.TrimSpace(cfg.Key)
	cfg.Exclusions = cfg.Exclusions.Normalize()

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return &cfg, nil
}

// findConfigFile returns the config file to read. An explicit path must exist;
// the implicit names are optional.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range []string{FileName, FileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

func isListKey(key string) bool {
	return key == "exclude_function_schemas" || key == "exclude_trigger_schemas"
}
