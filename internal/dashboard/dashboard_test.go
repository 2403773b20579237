package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/backfill"
	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes/bitnodestest"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { logger.UseTestMode() }

type snapshotFunc func(ctx context.Context) (*bitnodes.Snapshot, error)

func (f snapshotFunc) Fetch(ctx context.Context) (*bitnodes.Snapshot, error) { return f(ctx) }

type historyFunc func(ctx context.Context) ([]backfill.Point, error)

func (f historyFunc) Run(ctx context.Context) ([]backfill.Point, error) { return f(ctx) }

func okSnapshot() snapshotFunc {
	return func(context.Context) (*bitnodes.Snapshot, error) {
		return bitnodestest.MakeSnapshot(1700000000, "/Satoshi:27.0.0/", "/Knots:27.1/", "/Knots:27.1/"), nil
	}
}

func okHistory(pts ...backfill.Point) historyFunc {
	return func(context.Context) ([]backfill.Point, error) { return pts, nil }
}

func TestRun_BothPipelinesReady(t *testing.T) {
	rec := metrics.New()
	d := New(okSnapshot(), okHistory(backfill.Point{Timestamp: 1, MarkerCount: 2}), "Knots", rec)

	d.Run(context.Background())

	sum := d.Summary()
	require.Equal(t, Ready, sum.Kind)
	assert.Equal(t, 2, sum.Data.MarkerN)
	assert.Equal(t, 1, sum.Data.OtherN)

	hist := d.History()
	require.Equal(t, Ready, hist.Kind)
	assert.Equal(t, []backfill.Point{{Timestamp: 1, MarkerCount: 2}}, hist.Data)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `knotwatch_pipeline_runs_total{outcome="ok",pipeline="snapshot"} 1`)
	assert.Contains(t, body, `knotwatch_pipeline_runs_total{outcome="ok",pipeline="history"} 1`)
	assert.Contains(t, body, "knotwatch_history_points 1")
}

func TestRun_FailureStaysInItsSlot(t *testing.T) {
	boom := errors.New("upstream down")
	d := New(
		snapshotFunc(func(context.Context) (*bitnodes.Snapshot, error) { return nil, boom }),
		okHistory(),
		"Knots", nil,
	)

	d.Run(context.Background())

	sum := d.Summary()
	assert.Equal(t, Failed, sum.Kind)
	assert.ErrorIs(t, sum.Err, boom)

	hist := d.History()
	assert.Equal(t, Ready, hist.Kind)
	assert.Empty(t, hist.Data)
}

func TestRun_PipelinesDoNotWaitOnEachOther(t *testing.T) {
	release := make(chan struct{})
	d := New(okSnapshot(), historyFunc(func(ctx context.Context) ([]backfill.Point, error) {
		<-release
		return nil, nil
	}), "Knots", nil)

	snapshotDone := make(chan struct{})
	d.Subscribe(func(s Section) {
		if s == SectionSnapshot && d.Summary().Kind == Ready {
			close(snapshotDone)
		}
	})

	runDone := make(chan struct{})
	go func() {
		d.Run(context.Background())
		close(runDone)
	}()

	select {
	case <-snapshotDone:
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot pipeline waited on history")
	}
	assert.Equal(t, Loading, d.History().Kind)

	close(release)
	<-runDone
	assert.Equal(t, Ready, d.History().Kind)
}

func TestRun_NotifiesPerSection(t *testing.T) {
	d := New(okSnapshot(), okHistory(), "Knots", nil)

	var (
		mu   sync.Mutex
		seen = map[Section]int{}
	)
	d.Subscribe(func(s Section) {
		mu.Lock()
		seen[s]++
		mu.Unlock()
	})

	d.Run(context.Background())

	mu.Lock()
	defer mu.Unlock()
	// Loading then Ready for each.
	assert.Equal(t, 2, seen[SectionSnapshot])
	assert.Equal(t, 2, seen[SectionHistory])
}

func TestRun_NilSourceStaysIdle(t *testing.T) {
	d := New(okSnapshot(), nil, "Knots", nil)
	d.Run(context.Background())

	assert.Equal(t, Ready, d.Summary().Kind)
	assert.Equal(t, Idle, d.History().Kind)
}

func TestRefresh_KeepsReadyUntilNewResult(t *testing.T) {
	calls := 0
	release := make(chan struct{})
	d := New(snapshotFunc(func(context.Context) (*bitnodes.Snapshot, error) {
		calls++
		if calls > 1 {
			<-release
		}
		return bitnodestest.MakeSnapshot(int64(calls), "/Knots:1/"), nil
	}), nil, "Knots", nil)

	d.Run(context.Background())
	require.Equal(t, int64(1), d.Summary().Data.Timestamp)

	done := make(chan struct{})
	go func() {
		d.Refresh(context.Background())
		close(done)
	}()

	assert.Equal(t, Ready, d.Summary().Kind)
	assert.Equal(t, int64(1), d.Summary().Data.Timestamp)

	close(release)
	<-done
	assert.Equal(t, int64(2), d.Summary().Data.Timestamp)
}

func TestClose_DropsLateResults(t *testing.T) {
	release := make(chan struct{})
	d := New(snapshotFunc(func(context.Context) (*bitnodes.Snapshot, error) {
		<-release
		return bitnodestest.MakeSnapshot(1, "/Knots:1/"), nil
	}), nil, "Knots", nil)

	notified := 0
	d.Subscribe(func(Section) { notified++ })

	done := make(chan struct{})
	go func() {
		d.Run(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return d.Summary().Kind == Loading }, time.Second, time.Millisecond)
	d.Close()
	close(release)
	<-done

	assert.Equal(t, Loading, d.Summary().Kind)
	assert.Equal(t, 1, notified)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "history", SectionHistory.String())
}
