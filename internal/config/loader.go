package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/reprotrack/iatfmon/pkg/errors"
)

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "IATFMON"

// newViper builds a Viper with YAML files, IATFMON_ env binding and a "." → "_"
// key replacer, so engine.window_days resolves to IATFMON_ENGINE_WINDOW_DAYS.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setViperDefaults(v)
	return v
}

// Load reads the YAML file at configPath, applies IATFMON_* overrides and
// defaults, and validates the result.  An empty configPath behaves like
// LoadFromEnv.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}

	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "config: failed to read config file").
			WithDetail("path=" + configPath)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from IATFMON_* variables and defaults only.
//
//	IATFMON_<SECTION>_<FIELD>   e.g.  IATFMON_ENGINE_WINDOW_DAYS, IATFMON_SOURCE_PATH
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "config: failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
