package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")
	return &Loader{v: v}
}

// Load reads explicit, or the first existing of EPBM_CONFIG_PATH, the user
// config file and ./epbm.yaml, on top of DefaultConfig. No file at all is fine.
func (l *Loader) Load(explicit string) (Config, string, error) {
	if err := l.seedDefaults(); err != nil {
		return Config{}, "", err
	}

	path, err := l.resolve(explicit)
	if err != nil {
		return Config{}, "", err
	}
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return Config{}, "", fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decode config: %w", err)
	}
	return cfg, path, nil
}

// seedDefaults feeds DefaultConfig through YAML so every key is known to
// viper, which AutomaticEnv needs to see nested keys during Unmarshal.
func (l *Loader) seedDefaults() error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	for k, v := range tree {
		l.v.SetDefault(k, v)
	}
	return nil
}

func (l *Loader) resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	candidates := []string{os.Getenv(EnvConfigKey)}
	if p, err := DefaultPath(); err == nil {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, LocalFile)

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			return c, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config file %s: %w", c, err)
		}
	}
	return "", nil
}
