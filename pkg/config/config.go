// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the charm configuration: the inputs the orchestration
// layer passes through to the operator. Everything here comes from the
// deploy-time config plus free-form options forwarded to the workload
// container environment.
type Config struct {
	// AppName is the application name; it names every owned object.
	AppName string `mapstructure:"app-name"`

	// Namespace is the model namespace the charm deploys into.
	Namespace string `mapstructure:"namespace"`

	// Port is the workload HTTP port.
	Port int `mapstructure:"port"`

	// BackendMode selects the web app backend mode (web app only).
	BackendMode string `mapstructure:"backend-mode"`

	// SecureCookies toggles APP_SECURE_COOKIES (web app only).
	SecureCookies bool `mapstructure:"secure-cookies"`

	// TensorboardImage is the default image for Tensorboard instances
	// spawned by the controller (controller only).
	TensorboardImage string `mapstructure:"tensorboard-image"`

	// ResourcesFile points at the YAML file describing deploy-time
	// resources (the OCI image reference).
	ResourcesFile string `mapstructure:"resources-file"`

	// Options is free-form key/value configuration forwarded to the
	// workload container environment verbatim.
	Options map[string]string `mapstructure:"options"`
}

// Load reads configuration from the optional file at path, the
// environment (prefix TB_OPERATOR) and the passed defaults, in
// ascending precedence order file < env.
func Load(path string, defaults map[string]interface{}) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TB_OPERATOR")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app-name must be set")
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}
