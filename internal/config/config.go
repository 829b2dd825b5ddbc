package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nzaccagnino/go-sheets/internal/crypto"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type KDFConfig struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
}

// Params converts the config into crypto parameters.
func (k KDFConfig) Params() crypto.Params {
	return crypto.Params{Time: k.Time, Memory: k.MemoryKiB, Threads: k.Threads}
}

type ServerConfig struct {
	Addr           string  `yaml:"addr"`
	Token          string  `yaml:"token"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type Config struct {
	DBPath   string       `yaml:"db_path"`
	Language string       `yaml:"language"`
	Theme    string       `yaml:"theme"`
	Log      LogConfig    `yaml:"log"`
	KDF      KDFConfig    `yaml:"kdf"`
	Server   ServerConfig `yaml:"server"`
}

func DefaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "config.yml"
	}
	return filepath.Join(filepath.Dir(exe), "config.yml")
}

func DefaultDBPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "sheets.db"
	}
	return filepath.Join(filepath.Dir(exe), "sheets.db")
}

func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func Default() *Config {
	return &Config{
		DBPath:   DefaultDBPath(),
		Language: "it",
		Theme:    "dark",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		KDF: KDFConfig{
			Time:      crypto.DefaultParams.Time,
			MemoryKiB: crypto.DefaultParams.Memory,
			Threads:   crypto.DefaultParams.Threads,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8484",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, nil
}

// ApplyEnv overrides fields from SHEETS_* environment variables.
func (c *Config) ApplyEnv() error {
	c.DBPath = getEnv("SHEETS_DB_PATH", c.DBPath)
	c.Language = getEnv("SHEETS_LANGUAGE", c.Language)
	c.Log.Level = getEnv("SHEETS_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("SHEETS_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("SHEETS_LOG_FILE", c.Log.File)
	c.Server.Addr = getEnv("SHEETS_ADDR", c.Server.Addr)
	c.Server.Token = getEnv("SHEETS_API_TOKEN", c.Server.Token)

	if v, ok := os.LookupEnv("SHEETS_RATE_LIMIT_RPS"); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SHEETS_RATE_LIMIT_RPS: %w", err)
		}
		c.Server.RateLimitRPS = rps
	}
	if v, ok := os.LookupEnv("SHEETS_RATE_LIMIT_BURST"); ok {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SHEETS_RATE_LIMIT_BURST: %w", err)
		}
		c.Server.RateLimitBurst = burst
	}
	return nil
}

func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
