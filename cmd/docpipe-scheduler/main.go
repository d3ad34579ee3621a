package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/docpipe/docpipe/pkg/cmd"
	"github.com/docpipe/docpipe/pkg/log"
	"github.com/docpipe/docpipe/pkg/scheduler"
)

func main() {
	command := &cli.Command{
		Name:                  "docpipe-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Run cron-driven ingestion for scheduled pipeline sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "queue-url",
				Usage:   "Item queue URL (redis://host:port or memory)",
				Value:   "memory",
				Sources: cli.EnvVars("QUEUE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("docpipe-scheduler")

			logger.InfoContext(ctx, "Initializing docpipe scheduler")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "docpipe-scheduler", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			itemQueue := cmd.NewQueue(ctx, logger, command.String("queue-url"), "docpipe-schedulers", "scheduler")
			defer func() {
				if err := itemQueue.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close item queue", "error", err)
				}
			}()

			ingest := scheduler.NewIngestScheduler(persistence, itemQueue, eventBus, logger)
			if err := ingest.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start scheduler", "error", err)

				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-stop:
			case <-ctx.Done():
			}

			logger.InfoContext(ctx, "Shutting down scheduler")
			ingest.Stop()

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
