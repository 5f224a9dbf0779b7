// Package cli is the epbm command line: discover questionnaires, fill them,
// and manage the config file.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"epbm-autofill/internal/application/port/input"
	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/config"
	"epbm-autofill/internal/di"
	"epbm-autofill/internal/domain/entity"
	"epbm-autofill/internal/infrastructure/env"
	"epbm-autofill/internal/infrastructure/presenter"
)

const keyNoColor = "EPBM_NO_COLOR"

// Engine runs discovery and fill passes for one command invocation.
type Engine interface {
	input.DiscoveryRunner
	Run(ctx context.Context, rc entity.RunContext) entity.RunOutcome
	// Flush returns once every presenter event so far has been rendered.
	Flush()
	Close()
}

type EngineFactory func(cfg config.Config, p output.PresenterPort) (Engine, error)

// SelectFunc asks the user which items to fill.
type SelectFunc func(ctx context.Context, items []entity.WorkItem, in io.Reader, out io.Writer) (entity.RunSelection, error)

type App struct {
	Env       output.ConfigPort
	NewEngine EngineFactory
	Select    SelectFunc

	In  io.Reader
	Out io.Writer
	Err io.Writer

	configPath string
	username   string
	password   string
}

func NewApp(envCfg output.ConfigPort) *App {
	return &App{
		Env:       envCfg,
		NewEngine: containerEngine,
		Select:    presenter.RunSelector,
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
	}
}

func containerEngine(cfg config.Config, p output.PresenterPort) (Engine, error) {
	c, err := di.NewContainer(cfg, di.Options{LogName: "epbm", Presenter: p})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "epbm",
		Short: "Fill IPB EPBM course evaluations automatically",
		Long: `epbm signs in to the IPB student portal, lists the EPBM questionnaires
and fills the selected ones with your configured ratings and suggestion.

Credentials come from --username/--password or EPBM_USERNAME/EPBM_PASSWORD
(a .env file in the working directory is loaded first).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if app.Env != nil && app.Env.GetBool(keyNoColor, false) {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "config file (default: $EPBM_CONFIG_PATH, user config dir, ./epbm.yaml)")
	root.PersistentFlags().StringVarP(&app.username, "username", "u", "", "portal username (default: $EPBM_USERNAME)")
	root.PersistentFlags().StringVarP(&app.password, "password", "p", "", "portal password (default: $EPBM_PASSWORD)")

	root.AddCommand(
		newDiscoverCommand(app),
		newFillCommand(app),
		newConfigCommand(app),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	if err := root.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return code
		}
		color.New(color.FgRed).Fprintf(app.Err, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (app *App) loadConfig() (config.Config, error) {
	cfg, _, err := config.NewLoader().Load(app.configPath)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (app *App) credentials() (entity.Credentials, error) {
	creds := entity.Credentials{Username: app.username, Password: app.password}
	if app.Env != nil {
		fromEnv := env.Credentials(app.Env)
		if creds.Username == "" {
			creds.Username = fromEnv.Username
		}
		if creds.Password == "" {
			creds.Password = fromEnv.Password
		}
	}
	if creds.Empty() {
		return creds, fmt.Errorf("username and password are required (flags or %s/%s)", env.KeyUsername, env.KeyPassword)
	}
	return creds, nil
}

func (app *App) openEngine(cfg config.Config) (Engine, error) {
	engine, err := app.NewEngine(cfg, presenter.NewConsole(app.Out))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise: %w", err)
	}
	return engine, nil
}
