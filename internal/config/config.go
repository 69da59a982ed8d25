package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/BenjaminSRussell/linkaudit/internal/classifier"
	linkhttp "github.com/BenjaminSRussell/linkaudit/internal/http"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// EnvPrefix is the prefix of environment overrides, e.g. LINKAUDIT_CONCURRENCY
const EnvPrefix = "LINKAUDIT"

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"concurrency":     "concurrency",
	"timeout":         "timeout",
	"rate-limit":      "rate_limit",
	"retries":         "retries",
	"retries-timeout": "retries_timeout",
	"log-level":       "log.level",
	"log-file":        "log.file",
	"no-color":        "log.no_color",

	"seed-sitemaps":     "seed_sitemaps",
	"respect-robots":    "respect_robots",
	"dedup-external":    "dedup_external",
	"check-local-links": "check_local_links",
	"extensions":        "file_extensions",
	"visited-backend":   "visited_backend",
}

// Load reads the built-in defaults, merges the config file, applies
// LINKAUDIT_* environment variables and then any changed flags. When path is
// empty, linkaudit.yaml is looked up in the working directory and in
// ~/.linkaudit; a missing file is not an error. Rule patterns are compiled to
// reject invalid ones early.
func Load(path string, flags *pflag.FlagSet) (*types.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(defaultsYAML)); err != nil {
		return nil, fmt.Errorf("failed to read built-in defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("linkaudit")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".linkaudit"))
		}
	}

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var config types.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if flags != nil {
		if err := applyHeaderFlags(&config, flags); err != nil {
			return nil, err
		}
	}

	if _, err := classifier.New(config.RulesConfig); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	return &config, nil
}

// applyHeaderFlags merges repeated -H "Name: Value" flags into the headers
func applyHeaderFlags(config *types.Config, flags *pflag.FlagSet) error {
	f := flags.Lookup("header")
	if f == nil || !f.Changed {
		return nil
	}

	raw, err := flags.GetStringArray("header")
	if err != nil {
		return fmt.Errorf("failed to read header flags: %w", err)
	}

	headers, err := linkhttp.ParseHeaders(raw)
	if err != nil {
		return err
	}

	if config.Headers == nil {
		config.Headers = make(map[string]string, len(headers))
	}
	for name, value := range headers {
		// Drop a default spelled differently so the override wins
		for existing := range config.Headers {
			if strings.EqualFold(existing, name) {
				delete(config.Headers, existing)
			}
		}
		config.Headers[name] = value
	}
	return nil
}
