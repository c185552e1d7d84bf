package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dukex/swf-backend/pkg/catalog"
	"github.com/dukex/swf-backend/pkg/cmd"
	"github.com/dukex/swf-backend/pkg/config"
	"github.com/dukex/swf-backend/pkg/discovery"
	"github.com/dukex/swf-backend/pkg/engine"
	"github.com/dukex/swf-backend/pkg/otelhelper"
	"github.com/dukex/swf-backend/pkg/schema"
	"github.com/dukex/swf-backend/pkg/supervisor"
	"github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	httpTimeout        = 30 * time.Second
	healthCheckTimeout = 5 * time.Second
	redisKeyPrefix     = "swf:services"
	serviceName        = "swf"
)

func configFromCommand(command *cli.Command) (*config.Config, error) {
	var file *config.File

	if path := command.String("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}

		file = loaded
	}

	resourcesPath := command.String("engine-resources-path")
	if resourcesPath == "" {
		resourcesPath = command.String("resources-root")
	}

	cfg := &config.Config{
		Port:          command.Int("port"),
		ResourcesRoot: command.String("resources-root"),
		Engine: config.Engine{
			BaseURL:        command.String("engine-base-url"),
			Port:           command.Int("engine-port"),
			ResourcesPath:  resourcesPath,
			ContainerPath:  command.String("engine-container-path"),
			Image:          command.String("engine-image"),
			Launcher:       command.String("engine-launcher"),
			StderrPolicy:   command.String("stderr-policy"),
			HealthInterval: command.Duration("health-interval"),
			HealthAttempts: command.Int("health-attempts"),
		},
		CallbackURL:   command.String("callback-url"),
		AdvertiseURL:  command.String("advertise-url"),
		RedisURL:      command.String("redis-url"),
		EventBus:      command.String("event-bus"),
		KafkaBrokers:  command.StringSlice("kafka-brokers"),
		SpecLister:    command.String("spec-lister"),
		OTel:          command.Bool("otel"),
		LogLevel:      command.String("log-level"),
	}

	// The flag default only applies when the file names no scaffolder.
	explicit := map[string]string{}
	if command.IsSet("scaffolder-url") || file == nil || file.Services[catalog.ServiceName] == "" {
		explicit[catalog.ServiceName] = command.String("scaffolder-url")
	}

	cfg.Services = config.MergeServices(file, explicit)
	cfg.ScaffolderURL = cfg.Services[catalog.ServiceName]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDiscovery returns the lookup chain and, when Redis is configured, the
// registry this backend advertises itself in.
func newDiscovery(cfg *config.Config) (discovery.Discovery, *discovery.Redis, func() error, error) {
	static := discovery.Static(cfg.Services)

	if cfg.RedisURL == "" {
		return static, nil, func() error { return nil }, nil
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)
	registry := discovery.NewRedis(client, redisKeyPrefix)

	return discovery.Chain{registry, static}, registry, client.Close, nil
}

func advertise(ctx context.Context, registry *discovery.Redis, url string, logger *slog.Logger) {
	if registry == nil || url == "" {
		return
	}

	if err := registry.Register(ctx, serviceName, url); err != nil {
		logger.WarnContext(ctx, "Failed to advertise swf-backend", "url", url, "error", err)

		return
	}

	logger.InfoContext(ctx, "Advertised swf-backend", "service", serviceName, "url", url)
}

func newLauncher(name string) supervisor.Launcher {
	switch name {
	case "testcontainers":
		return supervisor.NewContainerLauncher()
	case "none":
		return supervisor.NoopLauncher{}
	default:
		return supervisor.NewCommandLauncher()
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	transport := http.DefaultTransport

	if cfg.OTel {
		tp, err := otelhelper.NewTracerProvider(ctx, "swf-backend")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()

		transport = otelhttp.NewTransport(transport)
	}

	client := &http.Client{Timeout: httpTimeout, Transport: transport}

	d, registry, closeDiscovery, err := newDiscovery(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeDiscovery(); err != nil {
			logger.Error("Failed to close discovery client", "error", err)
		}
	}()

	if err := os.MkdirAll(cfg.ResourcesRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create resources root: %w", err)
	}

	catalogClient := catalog.NewClient(d, client, cfg.CallbackURL)
	generator := schema.NewGenerator(catalogClient, logger)
	store := cmd.NewPersistence(cfg.ResourcesRoot, cfg.SpecLister, generator, catalogClient, client, logger)

	if err := store.SaveActionsOpenAPI(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to write actions OpenAPI document", "error", err)
	}

	engineClient := engine.NewClient(cfg.Engine.BaseURL, cfg.Engine.Port, client)

	stderrPolicy, err := supervisor.ParseStderrPolicy(cfg.Engine.StderrPolicy)
	if err != nil {
		return err
	}

	engineSupervisor := supervisor.New(
		supervisor.Config{
			Image:        cfg.Engine.Image,
			Port:         cfg.Engine.Port,
			HostDir:      cfg.Engine.ResourcesPath,
			ContainerDir: cfg.Engine.ContainerPath,
			Interval:     cfg.Engine.HealthInterval,
			MaxAttempts:  cfg.Engine.HealthAttempts,
			StderrPolicy: stderrPolicy,
		},
		newLauncher(cfg.Engine.Launcher),
		supervisor.HTTPHealthCheck(&http.Client{Timeout: healthCheckTimeout, Transport: transport}, engineClient.HealthURL()),
		logger,
	)

	eventBus, err := cmd.NewEventBus(cfg.EventBus, cfg.KafkaBrokers, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}()

	api := NewAPI(logger, store, engineClient, catalogClient, engineSupervisor)

	handle := engineSupervisor.Start(ctx)
	if !handle.Ready {
		logger.WarnContext(ctx, "Serving without a ready workflow engine", "state", handle.State)
	}

	advertise(ctx, registry, cfg.AdvertiseURL, logger)

	if err := eventBus.PublishAvailable(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to publish workflow availability", "error", err)
	}

	logger.InfoContext(ctx, "Listening", "port", cfg.Port)

	return api.Start(ctx, cfg.Port)
}
