package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"epbm-autofill/internal/config"
	"epbm-autofill/internal/domain/entity"
	"epbm-autofill/internal/infrastructure/presenter"
)

type fillOptions struct {
	items         []string
	allIncomplete bool
	interactive   bool
	headless      bool
	preset        string
	suggestion    string
}

func newFillCommand(app *App) *cobra.Command {
	opts := &fillOptions{}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill pending questionnaires",
		Long: `Fill EPBM questionnaires:
  1. sign in and list the questionnaires (headless)
  2. pick the ones to fill (every pending one unless --item or --interactive)
  3. sign in again and fill each selected questionnaire in order

Press Ctrl+C to stop after the questionnaire currently being filled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = opts.headless
			}
			return app.fill(cmd, cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.items, "item", "i", nil, "questionnaire to fill, by number or title substring (repeatable)")
	f.BoolVar(&opts.allIncomplete, "all-incomplete", true, "fill every questionnaire that is not completed yet")
	f.BoolVar(&opts.interactive, "interactive", false, "choose questionnaires from a checklist")
	f.BoolVar(&opts.headless, "headless", false, "run the browser without a window (default from config)")
	f.StringVar(&opts.preset, "preset", "", "set every rating at once: max (4) or mid (3)")
	f.StringVar(&opts.suggestion, "suggestion", "", "suggestion text for the lecturer feedback page")
	cmd.MarkFlagsMutuallyExclusive("item", "interactive")
	cmd.MarkFlagsMutuallyExclusive("item", "all-incomplete")
	return cmd
}

// validate rejects flag combinations that leave nothing to select.
func (o *fillOptions) validate() error {
	if !o.allIncomplete && len(o.items) == 0 && !o.interactive {
		return errors.New("--all-incomplete=false needs --item or --interactive to choose what to fill")
	}
	return nil
}

func (app *App) fill(cmd *cobra.Command, cfg config.Config, opts *fillOptions) error {
	if err := cfg.ApplyPreset(opts.preset); err != nil {
		return err
	}
	if opts.suggestion != "" {
		cfg.Ratings.Suggestion = opts.suggestion
	}
	settings, err := cfg.RatingSettings()
	if err != nil {
		return fmt.Errorf("ratings: %w", err)
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

	ctx := cmd.Context()
	found := engine.Discover(ctx, creds)
	engine.Flush()
	if !found.Success {
		return NewExitError(1)
	}

	var selection entity.RunSelection
	if opts.interactive {
		selection, err = app.Select(ctx, found.Items, app.In, app.Out)
		if errors.Is(err, presenter.ErrSelectionCancelled) {
			fmt.Fprintln(app.Out, "Selection cancelled, nothing was filled.")
			return NewExitError(1)
		}
		if err != nil {
			return err
		}
	} else {
		var skipped []entity.WorkItem
		selection, skipped, err = SelectItems(found.Items, opts.items)
		if err != nil {
			return err
		}
		for _, it := range skipped {
			color.New(color.FgYellow).Fprintf(app.Out, "Skipping %q: already completed.\n", it.Label())
		}
	}

	if len(selection) == 0 {
		fmt.Fprintln(app.Out, "Nothing to fill: every selected questionnaire is already completed.")
		return nil
	}
	fmt.Fprintf(app.Out, "Selected %d of %d questionnaire(s).\n", len(selection), len(found.Items))

	rc := entity.NewRunContext(creds, settings, selection, cfg.Browser.Headless)
	if out := engine.Run(ctx, rc); !out.Success {
		return NewExitError(1)
	}
	return nil
}
