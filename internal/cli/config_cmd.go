package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"epbm-autofill/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the epbm config file",
	}
	cmd.AddCommand(newConfigInitCommand(app), newConfigShowCommand(app))
	return cmd
}

func newConfigInitCommand(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := config.DefaultPath()
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				path = p
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective config and where it was loaded from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.NewLoader().Load(app.configPath)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			if path == "" {
				path = "(defaults only)"
			}
			fmt.Fprintf(app.Out, "# source: %s\n%s", path, data)
			return nil
		},
	}
}
