package docstore

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Settings holds the configuration of a Store and its backend.
type Settings struct {
	// DatabaseID names the database every collection lives in.
	DatabaseID string `yaml:"database_id"`
	// ConnectionString is the Azure Cosmos DB account connection string.
	ConnectionString string `yaml:"connection_string,omitempty"`
	// ProjectID is the Google Cloud project used by the Firestore backend.
	ProjectID string `yaml:"project_id,omitempty"`
	// MaxAttempts overrides DefaultMaxAttempts when positive.
	MaxAttempts int `yaml:"max_attempts,omitempty"`
}

// LoadSettingsFromEnv loads Settings from the environment.
func LoadSettingsFromEnv() (*Settings, error) {
	cfg := &Settings{
		DatabaseID:       os.Getenv("DOCSTORE_DATABASE_ID"),
		ConnectionString: os.Getenv("DOCSTORE_CONNECTION_STRING"),
		ProjectID:        os.Getenv("GCP_PROJECT_ID"),
	}
	if cfg.DatabaseID == "" {
		return nil, errors.New("DOCSTORE_DATABASE_ID environment variable not set")
	}
	if cfg.ConnectionString == "" && cfg.ProjectID == "" {
		return nil, errors.New("neither DOCSTORE_CONNECTION_STRING nor GCP_PROJECT_ID environment variable is set")
	}
	if v := os.Getenv("DOCSTORE_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DOCSTORE_MAX_ATTEMPTS '%s': %w", v, err)
		}
		cfg.MaxAttempts = n
	}
	return cfg, nil
}
