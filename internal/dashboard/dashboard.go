// Package dashboard drives the snapshot and history pipelines and keeps the
// last state of each for the presentation layer.
package dashboard

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/knotwatch/internal/aggregate"
	"github.com/MrSnakeDoc/knotwatch/internal/backfill"
	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/metrics"
	"golang.org/x/sync/errgroup"
)

type SnapshotSource interface {
	Fetch(ctx context.Context) (*bitnodes.Snapshot, error)
}

type HistorySource interface {
	Run(ctx context.Context) ([]backfill.Point, error)
}

type Dashboard struct {
	snapshots SnapshotSource
	history   HistorySource
	marker    string
	metrics   *metrics.Recorder

	mu      sync.RWMutex
	summary State[*aggregate.Result]
	series  State[[]backfill.Point]
	subs    []func(Section)
	closed  bool
}

// New wires the pipelines. Either source may be nil, in which case its
// slot stays Idle.
func New(snapshots SnapshotSource, history HistorySource, marker string, rec *metrics.Recorder) *Dashboard {
	return &Dashboard{
		snapshots: snapshots,
		history:   history,
		marker:    marker,
		metrics:   rec,
	}
}

// Subscribe registers fn to be called after a slot changes.
func (d *Dashboard) Subscribe(fn func(Section)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

func (d *Dashboard) Summary() State[*aggregate.Result] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.summary
}

func (d *Dashboard) History() State[[]backfill.Point] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.series
}

// Run performs the first cycle: every wired slot goes to Loading, then both
// pipelines run concurrently and each settles its own slot as soon as it
// finishes. Run returns once both have settled.
func (d *Dashboard) Run(ctx context.Context) {
	if d.snapshots != nil {
		d.setSummary(State[*aggregate.Result]{Kind: Loading})
	}
	if d.history != nil {
		d.setSeries(State[[]backfill.Point]{Kind: Loading})
	}
	d.cycle(ctx)
}

// Refresh runs another cycle. Slots keep their current state until the new
// result lands.
func (d *Dashboard) Refresh(ctx context.Context) {
	d.cycle(ctx)
}

// Close disposes the dashboard. Results arriving afterwards are dropped.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.subs = nil
}

func (d *Dashboard) cycle(ctx context.Context) {
	var g errgroup.Group

	if d.snapshots != nil {
		g.Go(func() error {
			d.setSummary(d.runSnapshot(ctx))
			return nil
		})
	}
	if d.history != nil {
		g.Go(func() error {
			d.setSeries(d.runHistory(ctx))
			return nil
		})
	}

	// Failures live in the slots; the group never returns one.
	_ = g.Wait()
}

func (d *Dashboard) runSnapshot(ctx context.Context) State[*aggregate.Result] {
	snap, err := d.snapshots.Fetch(ctx)
	d.metrics.Pipeline(SectionSnapshot.String(), err)
	if err != nil {
		logger.Debug("snapshot pipeline: %+v", err)
		logger.Warn("Could not load the latest snapshot: %v", err)
		return FailedState[*aggregate.Result](err)
	}

	res := aggregate.Aggregate(snap, d.marker)
	d.metrics.SetMarkerShare(res.MarkerPercent())
	return ReadyState(res)
}

func (d *Dashboard) runHistory(ctx context.Context) State[[]backfill.Point] {
	pts, err := d.history.Run(ctx)
	d.metrics.Pipeline(SectionHistory.String(), err)
	if err != nil {
		logger.Debug("history pipeline: %+v", err)
		logger.Warn("Could not load the historical series: %v", err)
		return FailedState[[]backfill.Point](err)
	}

	d.metrics.SetSeriesPoints(len(pts))
	return ReadyState(pts)
}

func (d *Dashboard) setSummary(s State[*aggregate.Result]) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.summary = s
	subs := append([]func(Section){}, d.subs...)
	d.mu.Unlock()

	notify(subs, SectionSnapshot)
}

func (d *Dashboard) setSeries(s State[[]backfill.Point]) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.series = s
	subs := append([]func(Section){}, d.subs...)
	d.mu.Unlock()

	notify(subs, SectionHistory)
}

func notify(subs []func(Section), s Section) {
	for _, fn := range subs {
		fn(s)
	}
}
