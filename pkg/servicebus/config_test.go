package servicebus_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/illmade-knight/go-cloudbridge/pkg/servicebus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTopologyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadTopology(t *testing.T) {
	t.Run("Valid file", func(t *testing.T) {
		path := writeTopologyFile(t, `
queues:
  - name: Orders.PlaceOrder
    requires_session: true
topics:
  - name: Orders.OrderPlaced
    subscriptions:
      - Billing.OrderPlacedHandler
      - Shipping.OrderPlacedHandler
`)
		topology, err := servicebus.LoadTopology(path)
		require.NoError(t, err)
		require.Len(t, topology.Queues, 1)
		assert.True(t, topology.Queues[0].RequiresSession)
		require.Len(t, topology.Topics, 1)
		assert.Equal(t, []string{"Billing.OrderPlacedHandler", "Shipping.OrderPlacedHandler"}, topology.Topics[0].Subscriptions)
	})

	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "Empty topology", content: "queues: []\n", errMsg: "no queues or topics defined"},
		{name: "Queue without name", content: "queues:\n  - requires_session: true\n", errMsg: "queues[0] is missing a name"},
		{name: "Empty subscription", content: "topics:\n  - name: t\n    subscriptions: ['']\n", errMsg: "topics[0].subscriptions[0] is empty"},
		{name: "Malformed YAML", content: "queues: [", errMsg: "failed to unmarshal YAML"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := servicebus.LoadTopology(writeTopologyFile(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	t.Run("Missing file", func(t *testing.T) {
		_, err := servicebus.LoadTopology(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Run("Requires a backend", func(t *testing.T) {
		t.Setenv("SERVICEBUS_CONNECTION_STRING", "")
		t.Setenv("GCP_PROJECT_ID", "")
		_, err := servicebus.LoadSettingsFromEnv()
		assert.Error(t, err)
	})

	t.Run("Generates subscription prefix", func(t *testing.T) {
		t.Setenv("SERVICEBUS_CONNECTION_STRING", "Endpoint=sb://example.servicebus.windows.net/")
		t.Setenv("SERVICEBUS_MASTER_PREFIX", "prod")
		t.Setenv("SERVICEBUS_SUBSCRIPTION_PREFIX", "")
		cfg, err := servicebus.LoadSettingsFromEnv()
		require.NoError(t, err)
		assert.Len(t, cfg.SubscriptionNamePrefix, 8)
		assert.Equal(t, "q.prod.x", cfg.Namer().QueueName("x"))
	})

	t.Run("Keeps configured subscription prefix", func(t *testing.T) {
		t.Setenv("GCP_PROJECT_ID", "proj")
		t.Setenv("SERVICEBUS_SUBSCRIPTION_PREFIX", "api")
		cfg, err := servicebus.LoadSettingsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "api", cfg.SubscriptionNamePrefix)
	})
}
