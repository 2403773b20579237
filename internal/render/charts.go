package render

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/aggregate"
	"github.com/MrSnakeDoc/knotwatch/internal/backfill"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

const (
	chartWidth  = 960
	chartHeight = 540
)

var (
	markerColor = drawing.ColorFromHex("f7931a")
	otherColor  = drawing.ColorFromHex("4a6fa5")
)

// PieChart draws the marker / non-marker split as a PNG.
func PieChart(w io.Writer, res *aggregate.Result) error {
	if res.Empty() || res.MarkerN+res.OtherN == 0 {
		return ErrNoData
	}

	pie := chart.PieChart{
		Title:  fmt.Sprintf("%s share of %d nodes", res.Marker, res.Denominator()),
		Width:  chartHeight,
		Height: chartHeight,
		Values: []chart.Value{
			{
				Label: fmt.Sprintf("%s %s", res.Marker, formatPercent(res.MarkerPercent())),
				Value: float64(res.MarkerN),
				Style: chart.Style{FillColor: markerColor},
			},
			{
				Label: fmt.Sprintf("Other %s", formatPercent(res.OtherPercent())),
				Value: float64(res.OtherN),
				Style: chart.Style{FillColor: otherColor},
			},
		},
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

// HistoryChart draws the marker count over time as a PNG line chart.
func HistoryChart(w io.Writer, pts []backfill.Point, marker string) error {
	if len(pts) == 0 {
		return ErrNoData
	}

	xs := make([]time.Time, 0, len(pts))
	ys := make([]float64, 0, len(pts))
	maxY := 0.0
	for _, p := range pts {
		xs = append(xs, p.Time())
		ys = append(ys, float64(p.MarkerCount))
		maxY = max(maxY, float64(p.MarkerCount))
	}
	// go-chart needs two distinct X values.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}

	yMax := maxY * 1.1
	if yMax == 0 {
		yMax = 1
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("%s nodes over time", marker),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat(DateLayout),
		},
		YAxis: chart.YAxis{
			Name:  "Nodes",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    marker,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: markerColor,
					StrokeWidth: 2,
					DotColor:    markerColor,
					DotWidth:    3,
				},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render history chart: %w", err)
	}
	return nil
}
