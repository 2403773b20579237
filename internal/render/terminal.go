// Package render turns pipeline states into terminal output, PNG charts and
// machine-readable exports.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/aggregate"
	"github.com/MrSnakeDoc/knotwatch/internal/backfill"
	"github.com/MrSnakeDoc/knotwatch/internal/dashboard"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/printer"
)

const (
	DateLayout      = "2006-01-02"
	barWidth        = 40
	snapshotLayout  = "2006-01-02 15:04 MST"
	loadingSnapshot = "Loading latest snapshot..."
	loadingHistory  = "Loading historical series..."
)

type Terminal struct {
	p    *printer.ColorPrinter
	rows int
}

// NewTerminal renders version tables of at most rows lines.
func NewTerminal(rows int) *Terminal {
	return &Terminal{p: printer.NewColorPrinter(), rows: rows}
}

// Summary prints the marker split of the latest snapshot.
func (t *Terminal) Summary(st dashboard.State[*aggregate.Result]) error {
	w := logger.Out()

	switch st.Kind {
	case dashboard.Idle:
		return nil
	case dashboard.Loading:
		_, err := fmt.Fprintln(w, t.p.Muted(loadingSnapshot))
		return err
	case dashboard.Failed:
		_, err := fmt.Fprintln(w, t.p.Error("Latest snapshot unavailable: %v", st.Err))
		return err
	}

	res := st.Data
	if res.Empty() {
		_, err := fmt.Fprintln(w, t.p.Warning("The latest snapshot lists no nodes."))
		return err
	}

	ts := time.Unix(res.Timestamp, 0).UTC().Format(snapshotLayout)
	lines := []string{
		t.p.Info("Snapshot %s, %d nodes", ts, res.Denominator()),
		fmt.Sprintf("%s %8d  %s", t.p.Marker("%-10s", res.Marker), res.MarkerN, formatPercent(res.MarkerPercent())),
		fmt.Sprintf("%s %8d  %s", t.p.Other("%-10s", "Other"), res.OtherN, formatPercent(res.OtherPercent())),
		t.bar(res.MarkerPercent()),
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// Versions prints the ranked version table.
func (t *Terminal) Versions(st dashboard.State[*aggregate.Result]) error {
	switch st.Kind {
	case dashboard.Idle:
		return nil
	case dashboard.Loading:
		_, err := fmt.Fprintln(logger.Out(), t.p.Muted(loadingSnapshot))
		return err
	case dashboard.Failed:
		_, err := fmt.Fprintln(logger.Out(), t.p.Error("Version table unavailable: %v", st.Err))
		return err
	}

	res := st.Data
	if res.Empty() {
		_, err := fmt.Fprintln(logger.Out(), t.p.Warning("No versions to rank."))
		return err
	}

	table := logger.CreateTable([]string{"#", "Version", "Nodes", "Share"})
	for i, row := range res.Top(t.rows) {
		name := aggregate.DisplayName(row.Version)
		if aggregate.IsMarker(row.Version, res.Marker) {
			name = t.p.Marker("%s", name)
		}
		share := formatPercent(aggregate.Percent(row.Count, res.Denominator()))
		if err := table.Append([]string{strconv.Itoa(i + 1), name, strconv.Itoa(row.Count), share}); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}
	return nil
}

// History prints one row per point of the series.
func (t *Terminal) History(st dashboard.State[[]backfill.Point], marker string) error {
	switch st.Kind {
	case dashboard.Idle:
		return nil
	case dashboard.Loading:
		_, err := fmt.Fprintln(logger.Out(), t.p.Muted(loadingHistory))
		return err
	case dashboard.Failed:
		_, err := fmt.Fprintln(logger.Out(), t.p.Error("Historical series unavailable: %v", st.Err))
		return err
	}

	if len(st.Data) == 0 {
		_, err := fmt.Fprintln(logger.Out(), t.p.Warning("No historical snapshots found."))
		return err
	}

	table := logger.CreateTable([]string{"Date", marker + " nodes"})
	for _, pt := range st.Data {
		if err := table.Append([]string{pt.Time().Format(DateLayout), strconv.Itoa(pt.MarkerCount)}); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}
	return nil
}

func (t *Terminal) bar(markerPct float64) string {
	filled := int(math.Round(markerPct / 100 * barWidth))
	filled = min(max(filled, 0), barWidth)
	return t.p.Marker("%s", strings.Repeat("█", filled)) + t.p.Other("%s", strings.Repeat("░", barWidth-filled))
}

func formatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 2, 64) + "%"
}
