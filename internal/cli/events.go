package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
)

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow mutation events published by the front end",
		Long: `Consume the create, update and delete events the front end publishes to
AMQP_EXCHANGE and log each one. Requires AMQP_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}
			logger := SetupLogger(cfg)

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
				logger.WithComponent(log.ComponentAMQP).Logger)
			if err != nil {
				return fmt.Errorf("connect AMQP: %w", err)
			}

			runCtx, stop := context.WithCancel(cmd.Context())
			defer stop()
			ctx, done := GracefulShutdown(runCtx, logger, shutdownTimeout, func(context.Context) {
				if err := client.Close(); err != nil {
					logger.Warn("AMQP close error", log.FieldError, err)
				}
			})

			err = client.Consume(ctx, logMutation(logger))
			stop()
			<-done
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func logMutation(logger *log.Logger) func(*amqp.MutationEvent) error {
	return func(ev *amqp.MutationEvent) error {
		logger.Info("Mutation event",
			"event_id", ev.EventID,
			log.FieldResource, ev.Resource,
			log.FieldOperation, ev.Action,
			log.FieldResourceID, ev.ID,
			"timestamp", ev.Timestamp)
		return nil
	}
}
