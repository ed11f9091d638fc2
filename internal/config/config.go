package config

import "time"

// Config holds relay server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`

	Judge    JudgeConfig    `mapstructure:"judge" yaml:"judge"`
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`
}

// JudgeConfig points at the external code-execution service. The api key is
// optional; execute requests fail individually when it is missing.
type JudgeConfig struct {
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	RequestsPerMin int    `mapstructure:"requests_per_min" yaml:"requests_per_min"`
}

// IdentityConfig verifies optional identity tokens on join. All fields are
// optional; without a secret, tokens are rejected at the join that carried
// them and the free-form display name is used instead.
type IdentityConfig struct {
	Secret   string `mapstructure:"secret" yaml:"secret"`
	Issuer   string `mapstructure:"issuer" yaml:"issuer"`
	Audience string `mapstructure:"audience" yaml:"audience"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "codesync.db",
		Judge: JudgeConfig{
			Endpoint:       "https://judge0-ce.p.rapidapi.com",
			RequestsPerMin: 30,
		},
	}
}
