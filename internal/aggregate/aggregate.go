// Package aggregate reduces a snapshot's node records to version counts and
// a marker / non-marker split.
package aggregate

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
)

const satoshiPrefix = "/Satoshi:"

// VersionCount is one row of the ranked version table.
type VersionCount struct {
	Version string `json:"version"`
	Count   int    `json:"count"`
}

// Result is derived from one snapshot and rebuilt for every new one.
type Result struct {
	Marker     string         `json:"marker"`
	Timestamp  int64          `json:"timestamp"`
	TotalNodes int            `json:"total_nodes"`
	Records    int            `json:"records"`
	Counts     map[string]int `json:"counts"`
	MarkerN    int            `json:"marker_count"`
	OtherN     int            `json:"non_marker_count"`

	// order lists versions by first appearance in the snapshot.
	order []string
}

// Aggregate visits every record once, tallying versions and classifying
// each one against marker with a substring test.
func Aggregate(snap *bitnodes.Snapshot, marker string) *Result {
	res := &Result{
		Marker: marker,
		Counts: make(map[string]int),
	}
	if snap == nil {
		return res
	}
	res.Timestamp = snap.Timestamp
	res.TotalNodes = snap.TotalNodes

	for _, n := range snap.Nodes {
		v := n.Record.Version()
		if _, seen := res.Counts[v]; !seen {
			res.order = append(res.order, v)
		}
		res.Counts[v]++
		res.Records++

		if IsMarker(v, marker) {
			res.MarkerN++
		} else {
			res.OtherN++
		}
	}
	return res
}

// IsMarker reports whether version carries the marker token.
func IsMarker(version, marker string) bool {
	return marker != "" && strings.Contains(version, marker)
}

// MarkerCount counts the records of snap whose version carries marker.
func MarkerCount(snap *bitnodes.Snapshot, marker string) int {
	if snap == nil {
		return 0
	}
	n := 0
	for _, node := range snap.Nodes {
		if IsMarker(node.Record.Version(), marker) {
			n++
		}
	}
	return n
}

// Empty reports a snapshot without any node records.
func (r *Result) Empty() bool {
	return r == nil || r.Records == 0
}

// Top returns at most n versions by descending count; equal counts keep the
// order in which the versions were first encountered.
func (r *Result) Top(n int) []VersionCount {
	if r == nil {
		return nil
	}
	rows := make([]VersionCount, 0, len(r.order))
	for _, v := range r.order {
		rows = append(rows, VersionCount{Version: v, Count: r.Counts[v]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Denominator is what percentages are taken against: the advertised
// total_nodes, or the record count when the API leaves it at zero.
func (r *Result) Denominator() int {
	if r == nil {
		return 0
	}
	if r.TotalNodes > 0 {
		return r.TotalNodes
	}
	return r.Records
}

func (r *Result) MarkerPercent() float64 {
	return Percent(r.MarkerN, r.Denominator())
}

func (r *Result) OtherPercent() float64 {
	return Percent(r.OtherN, r.Denominator())
}

// Percent is count/total*100, and 0 when total is not positive.
func Percent(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}

// DisplayName strips the literal "/Satoshi:" prefix and one trailing slash.
func DisplayName(version string) string {
	name := strings.TrimPrefix(version, satoshiPrefix)
	return strings.TrimSuffix(name, "/")
}
