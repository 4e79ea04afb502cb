package main

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-cloudbridge/pkg/docstore"
	"github.com/illmade-knight/go-cloudbridge/pkg/servicebus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand for one invocation.
type app struct {
	configFile string
	cfg        *config
	logger     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "busctl",
		Short: "Provision message bus entities and manage read model collections",
		Long: `busctl creates and deletes queues, topics and subscriptions using the same
naming rules as the libraries, applies topology files, and truncates read
model collections.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml)")
	flags.String(cfgKeyBackend, backendAzure, "backend: azure or google")
	flags.String(cfgKeyConnectionString, "", "Azure Service Bus connection string")
	flags.String(cfgKeyProjectID, "", "Google Cloud project id")
	flags.String(cfgKeyMasterPrefix, "", "master prefix applied to every entity name")
	flags.String(cfgKeySubscriptionPrefix, "", "subscription name prefix")
	flags.String(cfgKeyDatabaseID, "", "read model database id")
	flags.String(cfgKeyDocstoreConnection, "", "Azure Cosmos DB connection string")
	flags.Int(cfgKeyMaxAttempts, 0, "write attempts before giving up (0 uses the default)")
	flags.String(cfgKeyLogLevel, "info", "log level")

	cmd.AddCommand(
		newNamesCmd(a),
		newQueueCmd(a),
		newTopicCmd(a),
		newSubscriptionCmd(a),
		newTopologyCmd(a),
		newCollectionCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", cfg.LogLevel, err)
	}
	a.cfg = cfg
	a.logger = log.Logger.Level(level).With().Str("backend", cfg.Backend).Logger()
	return nil
}

// withManager opens the configured bus, runs fn and closes the bus.
func (a *app) withManager(ctx context.Context, fn func(*servicebus.TopologyManager) error) (err error) {
	var bus servicebus.Bus
	switch a.cfg.Backend {
	case backendAzure:
		if a.cfg.Bus.ConnectionString == "" {
			return errors.New("connection-string is required for the azure backend")
		}
		bus, err = servicebus.NewAzureServiceBus(a.cfg.Bus.ConnectionString)
	case backendGoogle:
		if a.cfg.Bus.ProjectID == "" {
			return errors.New("project-id is required for the google backend")
		}
		bus, err = servicebus.NewGooglePubSub(ctx, a.cfg.Bus.ProjectID)
	}
	if err != nil {
		return fmt.Errorf("failed to open bus: %w", err)
	}
	defer func() {
		if cerr := bus.Close(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
	}()

	manager, err := servicebus.NewTopologyManager(bus, a.cfg.Bus.Namer(), a.logger)
	if err != nil {
		return err
	}
	return fn(manager)
}

// withStore opens the configured document backend, runs fn and releases the backend.
func (a *app) withStore(ctx context.Context, fn func(*docstore.Store) error) error {
	if a.cfg.Docstore.DatabaseID == "" {
		return errors.New("database-id is required for collection commands")
	}
	var (
		client  docstore.DocumentClient
		release = func() {}
		err     error
	)
	switch a.cfg.Backend {
	case backendAzure:
		if a.cfg.Docstore.ConnectionString == "" {
			return errors.New("docstore-connection-string is required for the azure backend")
		}
		client, err = docstore.NewCosmosClient(a.cfg.Docstore.ConnectionString)
	case backendGoogle:
		if a.cfg.Docstore.ProjectID == "" {
			return errors.New("project-id is required for the google backend")
		}
		var fs *firestore.Client
		fs, err = firestore.NewClientWithDatabase(ctx, a.cfg.Docstore.ProjectID, a.cfg.Docstore.DatabaseID)
		if err == nil {
			release = func() { _ = fs.Close() }
			client, err = docstore.NewFirestoreClient(fs)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer release()

	store, err := docstore.NewStore(client, a.cfg.Docstore, a.logger)
	if err != nil {
		return err
	}
	return fn(store)
}
