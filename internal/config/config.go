package config

import "time"

// Config holds server and chat client configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	SessionTTL        time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	// SendRateLimit caps messages per user per minute. Zero disables the limit.
	SendRateLimit int    `mapstructure:"send_rate_limit" yaml:"send_rate_limit"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat     string `mapstructure:"log_format" yaml:"log_format"`

	Client ClientConfig `mapstructure:"client" yaml:"client"`
}

// ClientConfig configures the terminal chat widget and its backend client.
type ClientConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	PagePath string `mapstructure:"page_path" yaml:"page_path"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	// RequestTimeout bounds each backend call. Zero means no timeout.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// PollInterval reloads the open chat periodically. Zero disables polling.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "socialchat.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "socialchat",
		JWTAudience:       "socialchat",
		SessionTTL:        24 * time.Hour,
		SendRateLimit:     60,
		LogLevel:          "info",
		LogFormat:         "console",
		Client: ClientConfig{
			BaseURL:        "http://localhost:8080",
			PagePath:       "/message/",
			RequestTimeout: 30 * time.Second,
			PollInterval:   0,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.SessionTTL != 0 {
		c.SessionTTL = other.SessionTTL
	}
	if other.SendRateLimit != 0 {
		c.SendRateLimit = other.SendRateLimit
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	c.Client.UpdateFrom(other.Client)
}

// UpdateFrom overwrites non-zero client values from other.
func (c *ClientConfig) UpdateFrom(other ClientConfig) {
	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}
	if other.PagePath != "" {
		c.PagePath = other.PagePath
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.PollInterval != 0 {
		c.PollInterval = other.PollInterval
	}
}
