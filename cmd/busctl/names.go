package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNamesCmd(a *app) *cobra.Command {
	var (
		queues        []string
		topics        []string
		subscriptions []string
	)
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Print the physical names for logical entity names",
		Long: `Print the physical names the libraries would use, without contacting any backend.

  busctl names --master-prefix prod --queue Orders.PlaceOrder --topic Orders.OrderPlaced`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			namer := a.cfg.Bus.Namer()
			out := cmd.OutOrStdout()
			for _, q := range queues {
				fmt.Fprintf(out, "queue\t%s\t%s\n", q, namer.QueueName(q))
			}
			for _, t := range topics {
				fmt.Fprintf(out, "topic\t%s\t%s\n", t, namer.TopicName(t))
			}
			if len(subscriptions) > 0 {
				if err := a.cfg.requireSubscriptionPrefix(); err != nil {
					return err
				}
			}
			for _, s := range subscriptions {
				name, err := namer.SubscriptionName(s)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "subscription\t%s\t%s\n", s, name)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&queues, "queue", nil, "logical queue name (repeatable)")
	cmd.Flags().StringArrayVar(&topics, "topic", nil, "logical topic name (repeatable)")
	cmd.Flags().StringArrayVar(&subscriptions, "subscription", nil, "logical subscription name (repeatable)")
	return cmd
}
