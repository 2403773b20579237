// Package bitnodestest serves a scripted crawler API over TLS for tests.
package bitnodestest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
)

const apiPrefix = "/api/v1"

type Server struct {
	*httptest.Server

	mu sync.Mutex

	// Latest is returned by /snapshots/latest/.
	Latest *bitnodes.Snapshot
	// Pages holds the timestamps listed on each page, first page first.
	Pages [][]int64
	// Endless makes every page advertise a next link.
	Endless bool
	// SnapshotFn builds the snapshot served for a timestamp.
	SnapshotFn func(ts int64) *bitnodes.Snapshot
	// FailKind forces a 500 for "latest", "listing" or "snapshot".
	FailKind string
	// FailSnapshotAt forces a 500 for one snapshot timestamp.
	FailSnapshotAt int64

	hits map[string]int
}

func New() *Server {
	s := &Server{
		SnapshotFn: func(ts int64) *bitnodes.Snapshot {
			return MakeSnapshot(ts, "/Satoshi:27.0.0/", "/Knots:27.1.knots20240801/")
		},
		hits: make(map[string]int),
	}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.handle))
	return s
}

// BaseURL is the value for api.base_url.
func (s *Server) BaseURL() string {
	return s.URL + apiPrefix
}

// Hits returns how many requests of a kind were served.
func (s *Server) Hits(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[kind]
}

// TotalHits counts every request.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, apiPrefix)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case path == "/snapshots/latest/":
		s.hits["latest"]++
		if s.FailKind == "latest" || s.Latest == nil {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, s.Latest)

	case path == "/snapshots/":
		s.hits["listing"]++
		if s.FailKind == "listing" {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		writeJSON(w, s.listing(page))

	case strings.HasPrefix(path, "/snapshots/"):
		s.hits["snapshot"]++
		ts, err := strconv.ParseInt(strings.Trim(strings.TrimPrefix(path, "/snapshots/"), "/"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if s.FailKind == "snapshot" || (s.FailSnapshotAt != 0 && ts == s.FailSnapshotAt) {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, s.SnapshotFn(ts))

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) listing(page int) bitnodes.Listing {
	var l bitnodes.Listing
	if page >= 1 && page <= len(s.Pages) {
		for _, ts := range s.Pages[page-1] {
			l.Results = append(l.Results, bitnodes.Summary{
				URL:        fmt.Sprintf("%s/snapshots/%d/", s.BaseURL(), ts),
				Timestamp:  ts,
				TotalNodes: 2,
			})
		}
	}
	for _, p := range s.Pages {
		l.Count += len(p)
	}
	if s.Endless || page < len(s.Pages) {
		next := fmt.Sprintf("%s/snapshots/?page=%d", s.BaseURL(), page+1)
		l.Next = &next
	}
	if page > 1 {
		prev := fmt.Sprintf("%s/snapshots/?page=%d", s.BaseURL(), page-1)
		l.Previous = &prev
	}
	return l
}

// MakeSnapshot builds a snapshot with one node per version, in order.
func MakeSnapshot(ts int64, versions ...string) *bitnodes.Snapshot {
	snap := &bitnodes.Snapshot{
		Timestamp:    ts,
		TotalNodes:   len(versions),
		LatestHeight: 850000,
	}
	for i, v := range versions {
		snap.Nodes = append(snap.Nodes, bitnodes.Node{
			ID:     fmt.Sprintf("10.0.%d.%d:8333", i/256, i%256),
			Record: Record(v),
		})
	}
	return snap
}

// Record builds a realistic 13-field node record carrying version.
func Record(version string) bitnodes.NodeRecord {
	fields := []any{70016, version, 1721000000, 1033, 850000, nil, "Zurich", "CH", 47.37, 8.54, "Europe/Zurich", "AS13030", "Init7"}
	rec := make(bitnodes.NodeRecord, len(fields))
	for i, f := range fields {
		raw, _ := json.Marshal(f)
		rec[i] = raw
	}
	return rec
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
