package internal

import (
	"strings"
	"sync"

	"github.com/MrSnakeDoc/knotwatch/internal/backfill"
	"github.com/MrSnakeDoc/knotwatch/internal/dashboard"
	"github.com/MrSnakeDoc/knotwatch/internal/errs"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/MrSnakeDoc/knotwatch/internal/render"

	"github.com/spf13/cobra"
)

// showView is the --json output of show.
type showView struct {
	Summary *render.SummaryView `json:"summary,omitempty"`
	History []backfill.Point    `json:"history,omitempty"`
	Errors  map[string]string   `json:"errors,omitempty"`
}

func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the marker split, the version table and the weekly history",
		Long: `Show the full dashboard.
Both pipelines run concurrently: the latest snapshot (cached for 21 minutes)
and the weekly history (cached for 24 hours). Each section is printed as soon
as its pipeline settles; a failure in one does not hide the other.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noHistory, _ := cmd.Flags().GetBool("no-history")
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			d := a.dashboard(true, !noHistory)
			defer d.Close()

			if !asJSON {
				subscribeTerminal(d, render.NewTerminal(a.cfg.Table.Rows), a.cfg.Marker)
			}
			d.Run(cmd.Context())

			if asJSON {
				if err := render.WriteJSON(logger.Out(), buildShowView(d, a.cfg.Table.Rows)); err != nil {
					return err
				}
			}
			return failedSections(d)
		},
	}

	cmd.Flags().Bool("no-history", false, "Skip the historical backfill")
	cmd.Flags().Bool("json", false, "Print the dashboard as JSON")
	return cmd
}

// subscribeTerminal prints each section when its pipeline changes state.
func subscribeTerminal(d *dashboard.Dashboard, term *render.Terminal, marker string) {
	var mu sync.Mutex
	d.Subscribe(func(s dashboard.Section) {
		mu.Lock()
		defer mu.Unlock()

		var err error
		switch s {
		case dashboard.SectionSnapshot:
			st := d.Summary()
			if err = term.Summary(st); err == nil && st.Kind == dashboard.Ready {
				err = term.Versions(st)
			}
		case dashboard.SectionHistory:
			err = term.History(d.History(), marker)
		}
		if err != nil {
			logger.Debug("render %s: %v", s, err)
		}
	})
}

func buildShowView(d *dashboard.Dashboard, rows int) showView {
	var v showView
	failures := map[string]string{}

	switch sum := d.Summary(); sum.Kind {
	case dashboard.Ready:
		view := render.NewSummaryView(sum.Data, rows)
		v.Summary = &view
	case dashboard.Failed:
		failures[dashboard.SectionSnapshot.String()] = sum.Err.Error()
	}

	switch hist := d.History(); hist.Kind {
	case dashboard.Ready:
		v.History = hist.Data
	case dashboard.Failed:
		failures[dashboard.SectionHistory.String()] = hist.Err.Error()
	}

	if len(failures) > 0 {
		v.Errors = failures
	}
	return v
}

// failedSections turns failed pipelines into the command's exit status.
func failedSections(d *dashboard.Dashboard) error {
	var failed []string
	if d.Summary().Kind == dashboard.Failed {
		failed = append(failed, dashboard.SectionSnapshot.String())
	}
	if d.History().Kind == dashboard.Failed {
		failed = append(failed, dashboard.SectionHistory.String())
	}
	if len(failed) == 0 {
		return nil
	}
	return middleware.FlagComboError(errs.PipelinesFailed, strings.Join(failed, ", "))
}
