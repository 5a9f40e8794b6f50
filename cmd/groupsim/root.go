package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "groupsim",
		Short: "Import group matchmaking simulator",
		Long: `groupsim drives the import group engine without the HTTP service.
The run command replays the demo churn deterministically on a manual clock;
watch tails the lifecycle events a running API publishes to Redis.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newWatchCmd())
	return root
}
