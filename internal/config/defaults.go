package config

import "github.com/wikiquiz/wikiquiz/internal/providers"

// Config is the full server configuration.
type Config struct {
	Providers map[string]providers.Config `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsConfig              `mapstructure:"defaults" yaml:"defaults"`
	Wiki      WikiConfig                  `mapstructure:"wiki" yaml:"wiki"`
	Server    ServerConfig                `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig               `mapstructure:"storage" yaml:"storage"`
}

// DefaultsConfig names the primary and secondary providers for the
// fallback chain.
type DefaultsConfig struct {
	Primary   string `mapstructure:"primary" yaml:"primary"`
	Secondary string `mapstructure:"secondary" yaml:"secondary"`
}

// WikiConfig tunes the upstream encyclopedia client.
type WikiConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	UserAgent      string `mapstructure:"user_agent" yaml:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ServerConfig holds the HTTP listen address.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// Storage backends.
const (
	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
)

// StorageConfig selects the key-value backend. Redis settings are ignored
// unless backend is "redis".
type StorageConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]providers.Config{
			"gemini": {
				Type:           providers.GeminiName,
				BaseURL:        "http://localhost:8787",
				ProxyToken:     "${GEMINI_PROXY_TOKEN}",
				Model:          "gemini-2.5-flash",
				RequestsPerMin: 60,
			},
			"cohere": {
				Type:           providers.CohereName,
				APIKey:         "${COHERE_API_KEY}",
				Model:          "command-r-plus",
				RequestsPerMin: 60,
			},
		},
		Defaults: DefaultsConfig{
			Primary:   "gemini",
			Secondary: "cohere",
		},
		Wiki: WikiConfig{
			BaseURL:        "https://en.wikipedia.org",
			UserAgent:      "wikiquiz/1.0",
			TimeoutSeconds: 5,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Storage: StorageConfig{
			Backend: StorageBackendMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "wikiquiz:",
			},
		},
	}
}
