package cli

import (
	"github.com/spf13/cobra"
)

func newDiscoverCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List the EPBM questionnaires and which are still pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			creds, err := app.credentials()
			if err != nil {
				return err
			}

			engine, err := app.openEngine(cfg)
			if err != nil {
				return err
			}
			defer engine.Close()

			if out := engine.Discover(cmd.Context(), creds); !out.Success {
				return NewExitError(1)
			}
			return nil
		},
	}
}
