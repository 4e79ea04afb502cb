package docstore_test

import (
	"testing"

	"github.com/illmade-knight/go-cloudbridge/pkg/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Run("Cosmos settings", func(t *testing.T) {
		t.Setenv("DOCSTORE_DATABASE_ID", "views")
		t.Setenv("DOCSTORE_CONNECTION_STRING", "AccountEndpoint=https://localhost:8081/;AccountKey=a2V5;")
		t.Setenv("GCP_PROJECT_ID", "")
		t.Setenv("DOCSTORE_MAX_ATTEMPTS", "5")

		cfg, err := docstore.LoadSettingsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "views", cfg.DatabaseID)
		assert.Equal(t, 5, cfg.MaxAttempts)
	})

	t.Run("Missing database", func(t *testing.T) {
		t.Setenv("DOCSTORE_DATABASE_ID", "")
		t.Setenv("GCP_PROJECT_ID", "test-project")
		_, err := docstore.LoadSettingsFromEnv()
		assert.ErrorContains(t, err, "DOCSTORE_DATABASE_ID")
	})

	t.Run("Missing backend", func(t *testing.T) {
		t.Setenv("DOCSTORE_DATABASE_ID", "views")
		t.Setenv("DOCSTORE_CONNECTION_STRING", "")
		t.Setenv("GCP_PROJECT_ID", "")
		_, err := docstore.LoadSettingsFromEnv()
		assert.Error(t, err)
	})

	t.Run("Bad max attempts", func(t *testing.T) {
		t.Setenv("DOCSTORE_DATABASE_ID", "views")
		t.Setenv("GCP_PROJECT_ID", "test-project")
		t.Setenv("DOCSTORE_MAX_ATTEMPTS", "three")
		_, err := docstore.LoadSettingsFromEnv()
		assert.ErrorContains(t, err, "DOCSTORE_MAX_ATTEMPTS")
	})
}
