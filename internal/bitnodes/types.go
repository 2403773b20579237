package bitnodes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Positions inside a node record array.
const (
	FieldProtocol = iota
	FieldUserAgent
	FieldConnectedSince
	FieldServices
	FieldHeight
	FieldHostname
	FieldCity
	FieldCountry
	FieldLatitude
	FieldLongitude
	FieldTimezone
	FieldASN
	FieldOrganization
)

// NodeRecord is the fixed-position array the crawler returns per node.
// Elements are kept raw so a record re-encodes exactly as it was received.
type NodeRecord []json.RawMessage

// Version is the user agent at position 1, e.g. "/Satoshi:27.0.0/".
// Missing or non-string values yield "".
func (r NodeRecord) Version() string {
	var s string
	_ = r.decode(FieldUserAgent, &s)
	return s
}

func (r NodeRecord) Protocol() int {
	var n int
	_ = r.decode(FieldProtocol, &n)
	return n
}

func (r NodeRecord) Height() int64 {
	var n int64
	_ = r.decode(FieldHeight, &n)
	return n
}

func (r NodeRecord) Country() string {
	var s string
	_ = r.decode(FieldCountry, &s)
	return s
}

func (r NodeRecord) ASN() string {
	var s string
	_ = r.decode(FieldASN, &s)
	return s
}

func (r NodeRecord) decode(pos int, out any) error {
	if pos >= len(r) || len(r[pos]) == 0 {
		return fmt.Errorf("field %d missing", pos)
	}
	return json.Unmarshal(r[pos], out)
}

type Node struct {
	ID     string
	Record NodeRecord
}

// Nodes is the snapshot's node mapping decoded in document order, which is
// the encounter order used to break ties when ranking versions.
type Nodes []Node

func (n *Nodes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*n = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("nodes: expected object, got %v", tok)
	}

	out := make(Nodes, 0, 64)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("nodes: expected key, got %v", keyTok)
		}
		var rec NodeRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("nodes: record %q: %w", id, err)
		}
		out = append(out, Node{ID: id, Record: rec})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*n = out
	return nil
}

func (n Nodes) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, node := range n {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(node.ID)
		if err != nil {
			return nil, err
		}
		rec, err := json.Marshal(node.Record)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(rec)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Snapshot is one point-in-time capture of every reachable node.
type Snapshot struct {
	Timestamp    int64 `json:"timestamp"`
	TotalNodes   int   `json:"total_nodes"`
	LatestHeight int64 `json:"latest_height"`
	Nodes        Nodes `json:"nodes"`
}

// Summary is one entry of a snapshot listing page.
type Summary struct {
	URL          string `json:"url"`
	Timestamp    int64  `json:"timestamp"`
	TotalNodes   int    `json:"total_nodes"`
	LatestHeight int64  `json:"latest_height"`
}

// Listing is one page of the snapshot listing, newest first.
type Listing struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Summary `json:"results"`
}

// NextURL returns the next page link, or "" on the last page.
func (l *Listing) NextURL() string {
	if l == nil || l.Next == nil {
		return ""
	}
	return *l.Next
}
