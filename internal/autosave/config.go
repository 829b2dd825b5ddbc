package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nzaccagnino/go-sheets/internal/logging"
)

// ConfigKey is the settings key holding the serialized Config.
const ConfigKey = "autoSaveConfig"

const (
	MinIntervalSeconds = 1
	MaxIntervalSeconds = 300
)

var (
	ErrInvalidConfig = errors.New("invalid autosave config")
	// ErrConfigLoad is logged when the stored config cannot be used. It never
	// reaches callers; defaults are used instead.
	ErrConfigLoad = errors.New("failed to load autosave config")
)

type Config struct {
	Enabled           bool `json:"enabled"`
	IntervalSeconds   int  `json:"intervalSeconds"`
	ShowNotifications bool `json:"showNotifications"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		IntervalSeconds:   1,
		ShowNotifications: false,
	}
}

func (c Config) Validate() error {
	if c.IntervalSeconds < MinIntervalSeconds || c.IntervalSeconds > MaxIntervalSeconds {
		return fmt.Errorf("%w: interval %ds outside [%d, %d]",
			ErrInvalidConfig, c.IntervalSeconds, MinIntervalSeconds, MaxIntervalSeconds)
	}
	return nil
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ConfigPatch is a partial update; nil fields are left as they are.
type ConfigPatch struct {
	Enabled           *bool
	IntervalSeconds   *int
	ShowNotifications *bool
}

func (c Config) Apply(p ConfigPatch) Config {
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if p.IntervalSeconds != nil {
		c.IntervalSeconds = *p.IntervalSeconds
	}
	if p.ShowNotifications != nil {
		c.ShowNotifications = *p.ShowNotifications
	}
	return c
}

// Settings is the key-value layer the config is kept in. db.Bucket
// satisfies it.
type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type ConfigStore struct {
	settings Settings
	log      logging.Logger
}

func NewConfigStore(settings Settings, log logging.Logger) *ConfigStore {
	if log == nil {
		log = logging.Discard()
	}
	return &ConfigStore{settings: settings, log: log}
}

// Load returns the stored config merged over the defaults. Missing,
// unreadable or invalid records yield DefaultConfig.
func (c *ConfigStore) Load(ctx context.Context) Config {
	raw, found, err := c.settings.Get(ctx, ConfigKey)
	if err != nil {
		c.log.Warn(ctx, ErrConfigLoad.Error(), "error", err)
		return DefaultConfig()
	}
	if !found {
		return DefaultConfig()
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		c.log.Warn(ctx, ErrConfigLoad.Error(), "error", err)
		return DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		c.log.Warn(ctx, ErrConfigLoad.Error(), "error", err)
		return DefaultConfig()
	}
	return cfg
}

func (c *ConfigStore) Save(ctx context.Context, cfg Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal autosave config: %w", err)
	}
	if err := c.settings.Set(ctx, ConfigKey, string(data)); err != nil {
		return fmt.Errorf("failed to save autosave config: %w", err)
	}
	return nil
}
