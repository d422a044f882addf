package dependencies

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NetPulse/internal/bot/services"
	"NetPulse/internal/config"
	"NetPulse/internal/measurement"
	"NetPulse/internal/scheduler"
	"NetPulse/internal/webex"

	"github.com/redis/go-redis/v9"
)

// Container wires the bot's dependencies together.
type Container struct {
	// Config
	Config *config.Config

	// Logger
	Logger *slog.Logger

	// Clients
	Webex       *webex.Client
	Measurement *measurement.Client
	Redis       *redis.Client

	// Measurement pipeline
	Resolver   *measurement.Resolver
	Dispatcher *measurement.Dispatcher
	Correlator *measurement.Correlator
	Scheduler  *scheduler.Scheduler

	// Services
	TestService *services.TestService
}

// NewContainer builds and initializes the dependency container.
func NewContainer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: log,
	}

	if err := container.initCache(ctx); err != nil {
		return nil, err
	}

	container.initClients()
	container.initPipeline()
	container.initServices()

	slog.Info("Dependency container initialized successfully")
	return container, nil
}

func (c *Container) initCache(ctx context.Context) error {
	if !c.Config.Cache.Enabled() {
		c.Logger.Info("Agent cache disabled, resolving agents on every request")
		return nil
	}

	client := redis.NewClient(c.Config.Cache.GetRedisOptions())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		c.Logger.Error("failed to connect to Redis", "error", err)
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.Logger.Info("Connected to Redis", "addr", c.Config.Cache.Addr)
	c.Redis = client
	return nil
}

func (c *Container) initClients() {
	c.Webex = webex.NewClient(webex.Config{
		APIBase: c.Config.Webex.APIBase,
		Token:   c.Config.Webex.Token,
	}, c.Logger.With("client", "webex"))

	c.Measurement = measurement.NewClient(measurement.ClientConfig{
		BaseURL: c.Config.ThousandEyes.BaseURL,
		Token:   c.Config.ThousandEyes.Token,
		Timeout: c.Config.ThousandEyes.Timeout,
	}, c.Logger.With("client", "thousandeyes"))
}

func (c *Container) initPipeline() {
	logger := c.Logger

	c.Resolver = measurement.NewResolver(c.Measurement, c.Redis, c.Config.Cache.TTL, logger.With("component", "resolver"))
	c.Dispatcher = measurement.NewDispatcher(c.Measurement, logger.With("component", "dispatcher"))
	c.Correlator = measurement.NewCorrelator(c.Measurement, logger.With("component", "correlator"))
	c.Scheduler = scheduler.New(logger.With("component", "scheduler"))
}

func (c *Container) initServices() {
	c.TestService = services.NewTestService(
		c.Resolver,
		c.Dispatcher,
		c.Correlator,
		c.Scheduler,
		c.Webex,
		services.TestServiceConfig{
			DeliveryTimeout: 30 * time.Second,
		},
		c.Logger.With("service", "test"),
	)
}

// Close releases connections and stops pending delivery jobs.
func (c *Container) Close() error {
	var errors []error

	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errors)
	}

	return nil
}
