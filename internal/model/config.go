package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Server      ServerConfig      `yaml:"server"`
	Output      OutputConfig      `yaml:"output"`
}

// HTTPConfig controls URL ingestion and link checking
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_bytes"`
	RespectRobots bool          `yaml:"respect_robots"`
	PerHostRPS    float64       `yaml:"per_host_rps"`
	PerHostBurst  int           `yaml:"per_host_burst"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty"`
	NoProxy       string        `yaml:"no_proxy,omitempty"`
}

// OracleConfig configures the analysis oracle provider
type OracleConfig struct {
	Provider          string  `yaml:"provider"` // openai, anthropic, ollama
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"-"` // From environment only, never serialized
	BaseURL           string  `yaml:"base_url,omitempty"`
	Timeout           int     `yaml:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
}

// CacheConfig controls oracle response caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig bounds concurrent work
type ConcurrencyConfig struct {
	VerifyWorkers    int `yaml:"verify_workers"`
	LinkCheckWorkers int `yaml:"link_check_workers"`
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Veritrack/0.1 (+https://github.com/veritrack/veritrack)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			PerHostRPS:    2,
			PerHostBurst:  5,
		},
		Oracle: OracleConfig{
			Provider:          "openai",
			Model:             "",
			Timeout:           60,
			MaxTokens:         2000,
			RequestsPerMinute: 60,
			Burst:             5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			VerifyWorkers:    4,
			LinkCheckWorkers: 10,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
