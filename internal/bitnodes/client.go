package bitnodes

import (
	"context"
	"strings"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/checker"
	"github.com/MrSnakeDoc/knotwatch/internal/metrics"
	"github.com/MrSnakeDoc/knotwatch/internal/service"
)

const (
	latestPath  = "/snapshots/latest/"
	listingPath = "/snapshots/"

	defaultTimeout = 30 * time.Second
)

// Client talks to the crawler's REST API. It never retries.
type Client struct {
	baseURL   string
	http      service.HTTPClient
	userAgent string
	metrics   *metrics.Recorder
}

func New(baseURL string, client service.HTTPClient, rec *metrics.Recorder) *Client {
	if client == nil {
		client = service.NewHTTPClient(defaultTimeout)
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      client,
		userAgent: "knotwatch/" + checker.Version,
		metrics:   rec,
	}
}

// FirstPageURL is where a listing walk starts.
func (c *Client) FirstPageURL() string {
	return c.baseURL + listingPath
}

// Latest fetches the newest snapshot.
func (c *Client) Latest(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := service.GetJSON(ctx, c.http, c.baseURL+latestPath, c.userAgent, &snap)
	c.metrics.Upstream("latest", err)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Listing fetches one listing page by its absolute URL.
func (c *Client) Listing(ctx context.Context, pageURL string) (*Listing, error) {
	var page Listing
	err := service.GetJSON(ctx, c.http, pageURL, c.userAgent, &page)
	c.metrics.Upstream("listing", err)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Snapshot fetches the full snapshot behind a listing entry's URL.
func (c *Client) Snapshot(ctx context.Context, snapshotURL string) (*Snapshot, error) {
	var snap Snapshot
	err := service.GetJSON(ctx, c.http, snapshotURL, c.userAgent, &snap)
	c.metrics.Upstream("snapshot", err)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
