package main

import (
	"github.com/illmade-knight/go-cloudbridge/pkg/servicebus"
	"github.com/spf13/cobra"
)

func newTopologyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "topology", Short: "Apply or tear down a topology file"}

	apply := &cobra.Command{
		Use:   "apply FILE",
		Short: "Create every queue, topic and subscription in the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topology, err := servicebus.LoadTopology(args[0])
			if err != nil {
				return err
			}
			if err := a.checkTopologyPrefix(topology); err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *servicebus.TopologyManager) error {
				return m.Setup(cmd.Context(), *topology)
			})
		},
	}

	var force bool
	teardown := &cobra.Command{
		Use:   "teardown FILE",
		Short: "Delete every entity in the file",
		Long:  "Delete every entity in the file. Refuses to run unless --force is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topology, err := servicebus.LoadTopology(args[0])
			if err != nil {
				return err
			}
			if err := a.checkTopologyPrefix(topology); err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *servicebus.TopologyManager) error {
				return m.Teardown(cmd.Context(), *topology, !force)
			})
		},
	}
	teardown.Flags().BoolVar(&force, "force", false, "disable teardown protection")

	cmd.AddCommand(apply, teardown)
	return cmd
}

func (a *app) checkTopologyPrefix(topology *servicebus.Topology) error {
	for _, t := range topology.Topics {
		if len(t.Subscriptions) > 0 {
			return a.cfg.requireSubscriptionPrefix()
		}
	}
	return nil
}
