package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/importgroups-backend/internal/notifications"
	"github.com/angelmondragon/importgroups-backend/pkg/config"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
	"github.com/angelmondragon/importgroups-backend/pkg/redis"
)

const defaultEventChannel = "import-groups.events"

type watchOptions struct {
	redisURL   string
	channel    string
	jsonOutput bool
}

func newWatchCmd() *cobra.Command {
	opts := watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Tail group lifecycle events from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchEvents(ctx, cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.redisURL, "redis-url", "redis://localhost:6379/0", "Redis URL the API publishes to")
	flags.StringVar(&opts.channel, "channel", defaultEventChannel, "event channel name")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print raw envelopes as JSON lines")
	return cmd
}

func watchEvents(ctx context.Context, out io.Writer, opts watchOptions) error {
	logg := logger.New(logger.Options{ServiceName: "groupsim"})
	client, err := redis.New(ctx, config.RedisConfig{URL: opts.redisURL}, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.Subscribe(ctx, opts.channel)
	if err != nil {
		return err
	}
	defer sub.Close()

	consumer, err := notifications.NewConsumer(printEnvelope(out, opts.jsonOutput), logg)
	if err != nil {
		return err
	}
	if err := consumer.Run(ctx, sub.Channel()); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func printEnvelope(out io.Writer, jsonOutput bool) notifications.Handler {
	encoder := json.NewEncoder(out)
	return func(_ context.Context, envelope notifications.Envelope) error {
		if jsonOutput {
			return encoder.Encode(envelope)
		}
		_, err := fmt.Fprintf(out, "%s  %-28s %s  %-24s %3d%% %s\n",
			envelope.OccurredAt.Format("15:04:05.000"), envelope.Type, envelope.Group.ID.String()[:8],
			envelope.Group.DisplayName, envelope.Group.Progress, envelope.Role)
		return err
	}
}
