package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads the configuration from path and layers it as:
//  1. Default values
//  2. The YAML file at path (must exist)
//  3. NOTIFY_* environment variables
//
// Missing required keys fail with ErrConfiguration. Missing optional keys are
// recorded in MissingOptional and, when LockoutOnMissingOptional is set,
// disable authorization by clearing AuthorizedUser.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to read config file %q: %v", ErrConfiguration, path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	cfg.MissingOptional = cfg.missingRecommended()
	if len(cfg.MissingOptional) > 0 && cfg.LockoutOnMissingOptional {
		cfg.AuthorizedUser = ""
	}

	return cfg, nil
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	err := newValidator("validate").Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing, invalid []string
	for _, fe := range verrs {
		key := fieldKey(fe)
		if fe.Tag() == "required" {
			missing = append(missing, key)
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s=%s)", key, fe.Tag(), fe.Param()))
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required keys: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid values: "+strings.Join(invalid, ", "))
	}
	return errors.New(strings.Join(parts, "; "))
}

// missingRecommended runs a second validator over the `recommended` tags and
// returns the keys that failed.
func (c *Config) missingRecommended() []string {
	err := newValidator("recommended").Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	keys := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		keys = append(keys, fieldKey(fe))
	}
	return keys
}

func newValidator(tagName string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(tagName)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldKey turns "Config.smtp.port" into the YAML key "smtp.port".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
