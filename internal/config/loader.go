package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "SOCIALCHAT"
	envConfigDefaultPath = "SOCIALCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
	appDirName           = "socialchat"
)

// Load resolves the server configuration and returns the file it was read from.
// Precedence: defaults < config file < SOCIALCHAT_* env < caller overrides.
// A missing file is created with the defaults so operators have something to edit.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	path := explicitPath
	if path == "" {
		path = serverConfigPath()
	}
	return load(logger, path, true)
}

// LoadClient resolves the chat client configuration. It never writes files: a missing
// config is fine and defaults plus environment apply. Without an explicit path it reads
// config.yaml from the user config directory.
func LoadClient(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	path := explicitPath
	if path == "" {
		path = clientConfigPath()
	}
	return load(logger, path, false)
}

func load(logger *zerolog.Logger, path string, writeDefault bool) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaultsMap(cfg) {
		v.SetDefault(key, value)
	}
	v.SetConfigFile(path)

	err := v.ReadInConfig()
	switch {
	case err == nil:
	case isNotFound(err) && writeDefault:
		if werr := writeDefaultConfig(path, cfg); werr != nil {
			logger.Warn().Err(werr).Str("path", path).Msg("failed to write default config")
		} else {
			logger.Info().Str("path", path).Msg("created default config")
		}
	case isNotFound(err):
		logger.Debug().Str("path", path).Msg("no config file, using defaults and environment")
	default:
		return cfg, path, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, path, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, path, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// defaultsMap lists every key so AutomaticEnv can resolve keys that appear in no file,
// including the nested client ones.
func defaultsMap(cfg Config) map[string]any {
	return map[string]any{
		"addr":                   cfg.Addr,
		"read_header_timeout":    cfg.ReadHeaderTimeout,
		"shutdown_timeout":       cfg.ShutdownTimeout,
		"database_path":          cfg.DatabasePath,
		"jwt_secret":             cfg.JWTSecret,
		"jwt_issuer":             cfg.JWTIssuer,
		"jwt_audience":           cfg.JWTAudience,
		"session_ttl":            cfg.SessionTTL,
		"send_rate_limit":        cfg.SendRateLimit,
		"log_level":              cfg.LogLevel,
		"log_format":             cfg.LogFormat,
		"client.base_url":        cfg.Client.BaseURL,
		"client.page_path":       cfg.Client.PagePath,
		"client.username":        cfg.Client.Username,
		"client.password":        cfg.Client.Password,
		"client.request_timeout": cfg.Client.RequestTimeout,
		"client.poll_interval":   cfg.Client.PollInterval,
	}
}

func serverConfigPath() string {
	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func clientConfigPath() string {
	if base := os.Getenv(envConfigDefaultPath); base != "" {
		return filepath.Join(base, defaultConfigName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(dir, appDirName, defaultConfigName)
}

// writeDefaultConfig stores cfg without the client credentials.
func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cfg.Client.Password = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
