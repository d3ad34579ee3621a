package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/docpipe/docpipe/pkg/log"
)

func main() {
	fileFlag := &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path to the pipeline definition JSON file",
		Required: true,
	}

	command := &cli.Command{
		Name:                  "docpipe",
		Usage:                 "Inspect and compile document pipeline definitions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate and compile a pipeline definition",
				Flags: []cli.Flag{fileFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					log.Setup(cmd.String("log-level"))

					return runValidate(cmd.String("file"))
				},
			},
			{
				Name:  "order",
				Usage: "Print the execution order of a pipeline definition",
				Flags: []cli.Flag{fileFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					log.Setup(cmd.String("log-level"))

					return runOrder(cmd.String("file"))
				},
			},
			{
				Name:  "route",
				Usage: "Show where an item at a given node would advance to",
				Flags: []cli.Flag{
					fileFlag,
					&cli.StringFlag{
						Name:     "node",
						Usage:    "ID of the node the item currently sits at",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "File path of the simulated item",
					},
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Content type of the simulated item",
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Size in bytes of the simulated item",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					log.Setup(cmd.String("log-level"))

					return runRoute(
						cmd.String("file"),
						cmd.String("node"),
						cmd.String("path"),
						cmd.String("content-type"),
						int64(cmd.Int("size")),
					)
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
