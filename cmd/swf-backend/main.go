// Package main runs the serverless workflow backend.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/swf-backend/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort          = 7007
	defaultEnginePort    = 8899
	defaultContainerPath = "/home/kogito/serverless-workflow-project/src/main/resources"
	defaultImage         = "quay.io/kiegroup/kogito-swf-devmode:1.40"
)

func main() {
	cmd := &cli.Command{
		Name:                  "swf-backend",
		Usage:                 "Serve workflow definitions to the workflow engine and proxy its state",
		EnableShellCompletion: true,
		Flags:                 flags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("swf-backend")

			cfg, err := configFromCommand(command)
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Initializing swf-backend",
				"engine", cfg.Engine.BaseURL,
				"engine_port", cfg.Engine.Port,
			)

			return run(ctx, cfg, logger)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Run(ctx, os.Args)
	if err != nil {
		slog.Error("swf-backend stopped", "error", err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "resources-root",
			Usage:   "Directory where workflow definitions, schemas and specs are stored",
			Value:   "./workflows",
			Sources: cli.EnvVars("SWF_RESOURCES_ROOT"),
		},
		&cli.StringFlag{
			Name:    "engine-base-url",
			Usage:   "Base URL of the workflow engine, without port",
			Value:   "http://localhost",
			Sources: cli.EnvVars("SWF_BASE_URL"),
		},
		&cli.IntFlag{
			Name:    "engine-port",
			Usage:   "Host port the workflow engine listens on",
			Value:   defaultEnginePort,
			Sources: cli.EnvVars("SWF_PORT"),
		},
		&cli.StringFlag{
			Name:    "engine-resources-path",
			Usage:   "Host directory bound into the engine container (defaults to --resources-root)",
			Sources: cli.EnvVars("SWF_WORKFLOW_SERVICE_PATH"),
		},
		&cli.StringFlag{
			Name:    "engine-container-path",
			Usage:   "Resource directory inside the engine container",
			Value:   defaultContainerPath,
			Sources: cli.EnvVars("SWF_WORKFLOW_SERVICE_CONTAINER_PATH"),
		},
		&cli.StringFlag{
			Name:    "engine-image",
			Usage:   "Container image of the workflow engine",
			Value:   defaultImage,
			Sources: cli.EnvVars("SWF_WORKFLOW_SERVICE_CONTAINER"),
		},
		&cli.StringFlag{
			Name:    "engine-launcher",
			Usage:   "How to start the engine (docker, testcontainers, none)",
			Value:   "docker",
			Sources: cli.EnvVars("SWF_ENGINE_LAUNCHER"),
		},
		&cli.StringFlag{
			Name:    "stderr-policy",
			Usage:   "Treatment of launch output on stderr (fail, warn)",
			Value:   "fail",
			Sources: cli.EnvVars("SWF_STDERR_POLICY"),
		},
		&cli.DurationFlag{
			Name:    "health-interval",
			Usage:   "Delay between engine health checks",
			Value:   5 * time.Second,
			Sources: cli.EnvVars("SWF_HEALTH_INTERVAL"),
		},
		&cli.IntFlag{
			Name:    "health-attempts",
			Usage:   "Number of engine health checks before giving up",
			Value:   10,
			Sources: cli.EnvVars("SWF_HEALTH_ATTEMPTS"),
		},
		&cli.StringFlag{
			Name:    "scaffolder-url",
			Usage:   "Base URL of the host action catalog",
			Value:   "http://localhost:7007/api/scaffolder",
			Sources: cli.EnvVars("SCAFFOLDER_URL"),
		},
		&cli.StringFlag{
			Name:    "callback-url",
			Usage:   "URL under which the engine reaches this backend",
			Value:   "http://host.docker.internal:7007",
			Sources: cli.EnvVars("SWF_CALLBACK_URL"),
		},
		&cli.StringFlag{
			Name:    "advertise-url",
			Usage:   "URL registered for this backend in Redis discovery (optional)",
			Sources: cli.EnvVars("SWF_ADVERTISE_URL"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for service discovery (optional)",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringSliceFlag{
			Name:    "kafka-brokers",
			Usage:   "Kafka broker addresses",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "spec-lister",
			Usage:   "How specification files are enumerated (fixed, dir)",
			Value:   "fixed",
			Sources: cli.EnvVars("SWF_SPEC_LISTER"),
		},
		&cli.BoolFlag{
			Name:    "otel",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			Sources: cli.EnvVars("SWF_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}
