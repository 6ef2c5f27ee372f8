package veloinfo

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	STORE_MEMORY = "memory"
	STORE_BADGER = "badger"
)

// Config is the service configuration
type Config struct {
	Listen    string `yaml:"listen"`
	DataFile  string `yaml:"data_file"`
	WatchData bool   `yaml:"watch_data"`
	Verbose   bool   `yaml:"verbose"`
	// Store kind: memory (data file is loaded on start) or badger
	Store     string `yaml:"store"`
	BadgerDir string `yaml:"badger_dir"`

	CacheCapacity int           `yaml:"cache_capacity"`
	LockTimeout   time.Duration `yaml:"lock_timeout"`

	BalancedMaxExpansions int     `yaml:"balanced_max_expansions"`
	CorridorMaxExpansions int     `yaml:"corridor_max_expansions"`
	SlopePolicy           string  `yaml:"slope_policy"`
	RelaxDistance         float64 `yaml:"relax_distance"`
	RelaxFactor           float64 `yaml:"relax_factor"`
	NearestRadius         float64 `yaml:"nearest_radius"`

	ProgressEvery  int `yaml:"progress_every"`
	ProgressBuffer int `yaml:"progress_buffer"`

	WarmRoutes []WarmRoute `yaml:"warm_routes"`
}

// DefaultConfig returns configuration used for absent fields
func DefaultConfig() Config {
	return Config{
		Listen:                ":8080",
		Store:                 STORE_MEMORY,
		CacheCapacity:         defaultCacheCapacity,
		LockTimeout:           defaultLockTimeout,
		BalancedMaxExpansions: defaultBalancedExpansions,
		CorridorMaxExpansions: defaultCorridorExpansions,
		SlopePolicy:           SLOPE_MULTIPLICATIVE.String(),
		RelaxDistance:         defaultRelaxDistance,
		RelaxFactor:           defaultRelaxFactor,
		NearestRadius:         defaultNearestRadius,
		ProgressEvery:         defaultProgressEvery,
		ProgressBuffer:        defaultProgressBuffer,
		WarmRoutes:            DefaultWarmRoutes,
	}
}

// LoadConfig reads YAML file on top of defaults
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, errors.Wrapf(err, "Can't read config file %s", filename)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "Can't parse config file %s", filename)
	}
	return cfg, cfg.Validate()
}

// Validate checks values which have no sane fallback
func (cfg Config) Validate() error {
	switch cfg.Store {
	case STORE_MEMORY, STORE_BADGER:
	default:
		return fmt.Errorf("unknown store '%s', expected '%s' or '%s'", cfg.Store, STORE_MEMORY, STORE_BADGER)
	}
	if cfg.SlopePolicy != SLOPE_MULTIPLICATIVE.String() && cfg.SlopePolicy != SLOPE_ADDITIVE.String() {
		return fmt.Errorf("unknown slope policy '%s'", cfg.SlopePolicy)
	}
	if cfg.RelaxFactor != 0 && cfg.RelaxFactor < 1 {
		return fmt.Errorf("relax factor must be >= 1, got %f", cfg.RelaxFactor)
	}
	return nil
}

// NewEngine builds engine with its own neighbor cache according to configuration
func (cfg Config) NewEngine(store EdgeStore, logger *slog.Logger) *Engine {
	cache := NewNeighborCache(store,
		WithCacheCapacity(cfg.CacheCapacity),
		WithLockTimeout(cfg.LockTimeout),
		WithCacheLogger(logger),
	)
	return NewEngine(store,
		WithCache(cache),
		WithLogger(logger),
		WithProfiles(
			NewBalancedProfile(ParseSlopePolicy(cfg.SlopePolicy), cfg.BalancedMaxExpansions),
			NewCorridorProfile(cfg.CorridorMaxExpansions),
		),
		WithRelaxation(cfg.RelaxDistance, cfg.RelaxFactor),
		WithProgressEvery(cfg.ProgressEvery),
		WithNearestRadius(cfg.NearestRadius),
	)
}
