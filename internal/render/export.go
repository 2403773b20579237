package render

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/MrSnakeDoc/knotwatch/internal/aggregate"
	"github.com/MrSnakeDoc/knotwatch/internal/backfill"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"
)

// VersionRow is one ranked version in exported output.
type VersionRow struct {
	Version string  `json:"version"`
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Marker  bool    `json:"marker"`
}

// SummaryView is the exported form of an aggregated snapshot.
type SummaryView struct {
	Marker        string       `json:"marker"`
	Timestamp     int64        `json:"timestamp"`
	TotalNodes    int          `json:"total_nodes"`
	Records       int          `json:"records"`
	MarkerCount   int          `json:"marker_count"`
	OtherCount    int          `json:"non_marker_count"`
	MarkerPercent float64      `json:"marker_percent"`
	OtherPercent  float64      `json:"non_marker_percent"`
	Versions      []VersionRow `json:"versions"`
}

func NewSummaryView(res *aggregate.Result, rows int) SummaryView {
	return SummaryView{
		Marker:        res.Marker,
		Timestamp:     res.Timestamp,
		TotalNodes:    res.TotalNodes,
		Records:       res.Records,
		MarkerCount:   res.MarkerN,
		OtherCount:    res.OtherN,
		MarkerPercent: res.MarkerPercent(),
		OtherPercent:  res.OtherPercent(),
		Versions:      VersionRows(res, rows),
	}
}

// VersionRows returns the top rows versions ready for export.
func VersionRows(res *aggregate.Result, rows int) []VersionRow {
	return utils.Map(res.Top(rows), func(vc aggregate.VersionCount) VersionRow {
		return VersionRow{
			Version: vc.Version,
			Name:    aggregate.DisplayName(vc.Version),
			Count:   vc.Count,
			Percent: aggregate.Percent(vc.Count, res.Denominator()),
			Marker:  aggregate.IsMarker(vc.Version, res.Marker),
		}
	})
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes the series with a fixed column order.
func WriteCSV(w io.Writer, pts []backfill.Point) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"timestamp", "date", "marker_count"}); err != nil {
		return err
	}
	for _, p := range pts {
		record := []string{
			strconv.FormatInt(p.Timestamp, 10),
			p.Time().Format(DateLayout),
			strconv.Itoa(p.MarkerCount),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
