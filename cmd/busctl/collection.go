package main

import (
	"github.com/illmade-knight/go-cloudbridge/pkg/docstore"
	"github.com/spf13/cobra"
)

func newCollectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "collection", Short: "Manage read model collections"}

	truncate := &cobra.Command{
		Use:   "truncate NAME",
		Short: "Delete a collection and all of its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *docstore.Store) error {
				return s.Truncate(cmd.Context(), args[0])
			})
		},
	}

	ensureDB := &cobra.Command{
		Use:   "ensure-database",
		Short: "Create the read model database if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(s *docstore.Store) error {
				return s.EnsureDatabase(cmd.Context())
			})
		},
	}

	cmd.AddCommand(truncate, ensureDB)
	return cmd
}
