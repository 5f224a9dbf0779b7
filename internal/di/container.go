package di

import (
	"context"
	"fmt"
	"path/filepath"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/application/service"
	"epbm-autofill/internal/config"
	"epbm-autofill/internal/domain/entity"
	"epbm-autofill/internal/infrastructure/browser/pwdriver"
	"epbm-autofill/internal/infrastructure/browser/rod"
	"epbm-autofill/internal/infrastructure/diagnostics"
	"epbm-autofill/internal/infrastructure/logger"
	"epbm-autofill/internal/usecase/orchestrator"
)

type Container struct {
	Logger       output.LoggerPort
	Events       *service.EventBus
	Orchestrator *orchestrator.UseCase
}

type Options struct {
	// LogName is used in the log file name.
	LogName   string
	Presenter output.PresenterPort
	// NewDriver overrides the engine selected by the config.
	NewDriver output.DriverFactory
}

func NewContainer(cfg config.Config, opts Options) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	name := opts.LogName
	if name == "" {
		name = "epbm"
	}
	log, err := logger.NewLoggerAdapter(cfg.Run.LogDir, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	newDriver := opts.NewDriver
	if newDriver == nil {
		newDriver = DriverFactory(cfg.Browser)
	}

	presenter := opts.Presenter
	if presenter == nil {
		presenter = service.NopPresenter{}
	}
	events := service.NewEventBus(presenter)

	ocfg := orchestrator.Config{
		Surface:         cfg.Surface,
		Timing:          cfg.Timing,
		MaxPagesPerItem: cfg.Run.MaxPagesPerItem,
	}
	if cfg.Run.Diagnostics {
		ocfg.Diagnostics = diagnostics.NewRecorder(filepath.Join(cfg.Run.LogDir, "diagnostics"), log)
	}

	log.Info("Container ready",
		"engine", cfg.Browser.Engine,
		"landing_url", cfg.Surface.LandingURL,
		"max_pages_per_item", cfg.Run.MaxPagesPerItem,
		"diagnostics", cfg.Run.Diagnostics,
	)

	return &Container{
		Logger:       log,
		Events:       events,
		Orchestrator: orchestrator.New(newDriver, events, log, ocfg),
	}, nil
}

// DriverFactory picks the browser engine named in the config.
func DriverFactory(cfg config.BrowserConfig) output.DriverFactory {
	if cfg.Engine == config.EnginePlaywright {
		return pwdriver.Factory(pwdriver.Config{
			Headless: cfg.Headless,
			Install:  cfg.Install,
		})
	}

	rc := rod.DefaultConfig()
	rc.Headless = cfg.Headless
	rc.SlowMotion = cfg.SlowMotion
	rc.NoSandbox = cfg.NoSandbox
	rc.Bin = cfg.Bin
	return rod.Factory(rc)
}

func (c *Container) Discover(ctx context.Context, creds entity.Credentials) entity.DiscoveryOutcome {
	return c.Orchestrator.Discover(ctx, creds)
}

func (c *Container) Run(ctx context.Context, rc entity.RunContext) entity.RunOutcome {
	return c.Orchestrator.Run(ctx, rc)
}

// Flush waits until the presenter has seen every event emitted so far.
func (c *Container) Flush() {
	c.Events.Flush()
}

// Close flushes pending presenter events, then the log.
func (c *Container) Close() {
	if c.Events != nil {
		c.Events.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
