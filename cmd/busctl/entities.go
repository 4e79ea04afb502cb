package main

import (
	"fmt"

	"github.com/illmade-knight/go-cloudbridge/pkg/servicebus"
	"github.com/spf13/cobra"
)

func newQueueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "queue", Short: "Ensure or delete queues"}

	var requiresSession bool
	ensure := &cobra.Command{
		Use:   "ensure NAME",
		Short: "Create the queue if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *servicebus.TopologyManager) error {
				name, err := m.EnsureQueue(cmd.Context(), args[0], requiresSession)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}
	ensure.Flags().BoolVar(&requiresSession, "session", false, "create the queue with sessions enabled")

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *servicebus.TopologyManager) error {
				return m.DeleteQueue(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(ensure, del)
	return cmd
}

func newTopicCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "topic", Short: "Ensure or delete topics"}

	ensure := &cobra.Command{
		Use:   "ensure NAME",
		Short: "Create the topic if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *servicebus.TopologyManager) error {
				name, err := m.EnsureTopic(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete the topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *servicebus.TopologyManager) error {
				return m.DeleteTopic(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(ensure, del)
	return cmd
}

func newSubscriptionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Ensure or delete topic subscriptions",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.init(cmd); err != nil {
				return err
			}
			return a.cfg.requireSubscriptionPrefix()
		},
	}

	ensure := &cobra.Command{
		Use:   "ensure TOPIC NAME",
		Short: "Create the subscription if it does not exist; the topic must already exist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *servicebus.TopologyManager) error {
				topic, sub, err := m.EnsureSubscription(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", topic, sub)
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete TOPIC NAME",
		Short: "Delete the subscription",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *servicebus.TopologyManager) error {
				return m.DeleteSubscription(cmd.Context(), args[0], args[1])
			})
		},
	}

	cmd.AddCommand(ensure, del)
	return cmd
}
