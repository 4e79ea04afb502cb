package servicebus

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Settings holds the configuration consumed by the topology manager and the backend adapters.
type Settings struct {
	// ConnectionString is the Azure Service Bus namespace connection string.
	ConnectionString string `yaml:"connection_string,omitempty"`
	// ProjectID is the Google Cloud project used by the Pub/Sub backend.
	ProjectID string `yaml:"project_id,omitempty"`
	// MasterPrefix namespaces every entity, e.g. per environment.
	MasterPrefix string `yaml:"master_prefix,omitempty"`
	// SubscriptionNamePrefix disambiguates the subscriptions of one process from another.
	SubscriptionNamePrefix string `yaml:"subscription_name_prefix,omitempty"`
}

// Namer returns the Namer described by these settings.
func (s Settings) Namer() Namer {
	return Namer{MasterPrefix: s.MasterPrefix, SubscriptionNamePrefix: s.SubscriptionNamePrefix}
}

// NewSubscriptionNamePrefix returns a short random prefix, for processes that want
// their own subscriptions rather than competing with other instances.
func NewSubscriptionNamePrefix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// LoadSettingsFromEnv loads Settings from the environment.
// SERVICEBUS_SUBSCRIPTION_PREFIX falls back to a fresh per-process prefix.
func LoadSettingsFromEnv() (*Settings, error) {
	cfg := &Settings{
		ConnectionString:       os.Getenv("SERVICEBUS_CONNECTION_STRING"),
		ProjectID:              os.Getenv("GCP_PROJECT_ID"),
		MasterPrefix:           os.Getenv("SERVICEBUS_MASTER_PREFIX"),
		SubscriptionNamePrefix: os.Getenv("SERVICEBUS_SUBSCRIPTION_PREFIX"),
	}
	if cfg.ConnectionString == "" && cfg.ProjectID == "" {
		return nil, errors.New("neither SERVICEBUS_CONNECTION_STRING nor GCP_PROJECT_ID environment variable is set")
	}
	if cfg.SubscriptionNamePrefix == "" {
		cfg.SubscriptionNamePrefix = NewSubscriptionNamePrefix()
	}
	return cfg, nil
}

// Topology is a declarative set of logical messaging entities, loaded from YAML.
type Topology struct {
	Queues []QueueSpec `yaml:"queues"`
	Topics []TopicSpec `yaml:"topics"`
}

// QueueSpec declares a queue by logical name.
type QueueSpec struct {
	Name            string `yaml:"name"`
	RequiresSession bool   `yaml:"requires_session,omitempty"`
}

// TopicSpec declares a topic and the logical names of its subscriptions.
type TopicSpec struct {
	Name          string   `yaml:"name"`
	Subscriptions []string `yaml:"subscriptions,omitempty"`
}

// LoadTopology reads a YAML topology file and performs basic validation.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file '%s': %w", path, err)
	}
	var topology Topology
	if err := yaml.Unmarshal(data, &topology); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML from '%s': %w", path, err)
	}
	if len(topology.Queues) == 0 && len(topology.Topics) == 0 {
		return nil, fmt.Errorf("validation error: no queues or topics defined in '%s'", path)
	}
	for i, q := range topology.Queues {
		if q.Name == "" {
			return nil, fmt.Errorf("validation error: queues[%d] is missing a name", i)
		}
	}
	for i, t := range topology.Topics {
		if t.Name == "" {
			return nil, fmt.Errorf("validation error: topics[%d] is missing a name", i)
		}
		for j, s := range t.Subscriptions {
			if s == "" {
				return nil, fmt.Errorf("validation error: topics[%d].subscriptions[%d] is empty", i, j)
			}
		}
	}
	return &topology, nil
}
