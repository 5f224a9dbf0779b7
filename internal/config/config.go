// Package config loads run settings from YAML, EPBM_* environment variables
// and built-in defaults, in that order of precedence (environment highest).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"epbm-autofill/internal/domain/entity"
)

const (
	EngineRod        = "rod"
	EnginePlaywright = "playwright"

	EnvPrefix    = "EPBM"
	EnvConfigKey = "EPBM_CONFIG_PATH"
	FileName     = "config.yaml"
	LocalFile    = "epbm.yaml"

	PresetMax = "max"
	PresetMid = "mid"
)

type Config struct {
	Browser BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Surface entity.Surface `mapstructure:"surface" yaml:"surface"`
	Timing  entity.Timing  `mapstructure:"timing" yaml:"timing"`
	Ratings RatingsConfig  `mapstructure:"ratings" yaml:"ratings"`
	Run     RunConfig      `mapstructure:"run" yaml:"run"`
}

type BrowserConfig struct {
	Engine     string        `mapstructure:"engine" yaml:"engine"`
	Headless   bool          `mapstructure:"headless" yaml:"headless"`
	SlowMotion time.Duration `mapstructure:"slow_motion" yaml:"slow_motion"`
	NoSandbox  bool          `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	Bin        string        `mapstructure:"bin" yaml:"bin"`
	Install    bool          `mapstructure:"install" yaml:"install"`
}

type RatingsConfig struct {
	Values     map[string]int `mapstructure:"values" yaml:"values"`
	Suggestion string         `mapstructure:"suggestion" yaml:"suggestion"`
}

type RunConfig struct {
	MaxPagesPerItem int    `mapstructure:"max_pages_per_item" yaml:"max_pages_per_item"`
	Diagnostics     bool   `mapstructure:"diagnostics" yaml:"diagnostics"`
	LogDir          string `mapstructure:"log_dir" yaml:"log_dir"`
}

func DefaultConfig() Config {
	values := make(map[string]int, len(entity.AllQuestions))
	for _, q := range entity.AllQuestions {
		values[string(q)] = entity.DefaultRating
	}
	return Config{
		Browser: BrowserConfig{
			Engine:    EngineRod,
			Headless:  false,
			NoSandbox: true,
		},
		Surface: entity.DefaultSurface(),
		Timing:  entity.DefaultTiming(),
		Ratings: RatingsConfig{
			Values:     values,
			Suggestion: entity.DefaultSuggestion,
		},
		Run: RunConfig{
			MaxPagesPerItem: 30,
			Diagnostics:     true,
			LogDir:          "log",
		},
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Browser.Engine {
	case EngineRod, EnginePlaywright:
	default:
		errs = append(errs, fmt.Errorf("browser.engine must be %q or %q, got %q", EngineRod, EnginePlaywright, c.Browser.Engine))
	}
	if strings.TrimSpace(c.Surface.LandingURL) == "" {
		errs = append(errs, errors.New("surface.landing_url is required"))
	}
	if c.Run.MaxPagesPerItem <= 0 {
		errs = append(errs, fmt.Errorf("run.max_pages_per_item must be positive, got %d", c.Run.MaxPagesPerItem))
	}
	if _, err := c.RatingSettings(); err != nil {
		errs = append(errs, fmt.Errorf("ratings: %w", err))
	}
	return errors.Join(errs...)
}

// RatingSettings converts the ratings section into validated domain settings.
func (c Config) RatingSettings() (entity.RatingSettings, error) {
	values := make(map[entity.QuestionID]int, len(c.Ratings.Values))
	for k, v := range c.Ratings.Values {
		values[entity.QuestionID(strings.ToLower(k))] = v
	}
	return entity.NewRatingSettings(values, c.Ratings.Suggestion)
}

// ApplyPreset sets every rating to the preset's value.
func (c *Config) ApplyPreset(name string) error {
	var v int
	switch strings.ToLower(name) {
	case "":
		return nil
	case PresetMax:
		v = entity.MaxRating
	case PresetMid:
		v = entity.MaxRating - 1
	default:
		return fmt.Errorf("unknown preset %q (want %q or %q)", name, PresetMax, PresetMid)
	}
	c.Ratings.Values = make(map[string]int, len(entity.AllQuestions))
	for _, q := range entity.AllQuestions {
		c.Ratings.Values[string(q)] = v
	}
	return nil
}

// DefaultPath is <user config dir>/epbm/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "epbm", FileName), nil
}

// WriteDefault writes DefaultConfig as YAML, refusing to clobber an existing file.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
