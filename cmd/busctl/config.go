package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/illmade-knight/go-cloudbridge/pkg/docstore"
	"github.com/illmade-knight/go-cloudbridge/pkg/servicebus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "BUSCTL"

	cfgKeyBackend            = "backend"
	cfgKeyConnectionString   = "connection-string"
	cfgKeyProjectID          = "project-id"
	cfgKeyMasterPrefix       = "master-prefix"
	cfgKeySubscriptionPrefix = "subscription-prefix"
	cfgKeyDatabaseID         = "database-id"
	cfgKeyDocstoreConnection = "docstore-connection-string"
	cfgKeyMaxAttempts        = "max-attempts"
	cfgKeyLogLevel           = "log-level"

	backendAzure  = "azure"
	backendGoogle = "google"
)

// config is the resolved view of flags, BUSCTL_* variables and the optional config file.
type config struct {
	Backend  string
	Bus      servicebus.Settings
	Docstore docstore.Settings
	LogLevel string
}

// loadConfig merges the config file (when given) under environment variables and flags.
func loadConfig(path string, flags *pflag.FlagSet) (*config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, backendAzure)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config '%s': %w", path, err)
		}
	}

	cfg := &config{
		Backend: strings.ToLower(v.GetString(cfgKeyBackend)),
		Bus: servicebus.Settings{
			ConnectionString:       v.GetString(cfgKeyConnectionString),
			ProjectID:              v.GetString(cfgKeyProjectID),
			MasterPrefix:           v.GetString(cfgKeyMasterPrefix),
			SubscriptionNamePrefix: v.GetString(cfgKeySubscriptionPrefix),
		},
		Docstore: docstore.Settings{
			DatabaseID:       v.GetString(cfgKeyDatabaseID),
			ConnectionString: v.GetString(cfgKeyDocstoreConnection),
			ProjectID:        v.GetString(cfgKeyProjectID),
			MaxAttempts:      v.GetInt(cfgKeyMaxAttempts),
		},
		LogLevel: v.GetString(cfgKeyLogLevel),
	}
	if cfg.Backend != backendAzure && cfg.Backend != backendGoogle {
		return nil, fmt.Errorf("unknown backend '%s', want '%s' or '%s'", cfg.Backend, backendAzure, backendGoogle)
	}
	return cfg, nil
}

// requireSubscriptionPrefix rejects subscription commands without a fixed prefix:
// a random one would name a different subscription on every run.
func (c *config) requireSubscriptionPrefix() error {
	if c.Bus.SubscriptionNamePrefix == "" {
		return errors.New("subscription-prefix must be set for subscription commands")
	}
	return nil
}
