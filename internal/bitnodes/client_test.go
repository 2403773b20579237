package bitnodes_test

import (
	"context"
	"testing"

	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes/bitnodestest"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { logger.UseTestMode() }

func TestClient_Latest(t *testing.T) {
	api := bitnodestest.New()
	defer api.Close()
	api.Latest = bitnodestest.MakeSnapshot(1721990000, "/Satoshi:27.0.0/", "/Knots:27.1/")

	c := bitnodes.New(api.BaseURL(), api.Client(), nil)
	snap, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1721990000), snap.Timestamp)
	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, "/Knots:27.1/", snap.Nodes[1].Record.Version())
	assert.Equal(t, 1, api.Hits("latest"))
}

func TestClient_ListingAndSnapshot(t *testing.T) {
	api := bitnodestest.New()
	defer api.Close()
	api.Pages = [][]int64{{300, 200}, {100}}

	c := bitnodes.New(api.BaseURL(), api.Client(), nil)
	page, err := c.Listing(context.Background(), c.FirstPageURL())
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, int64(300), page.Results[0].Timestamp)
	assert.NotEmpty(t, page.NextURL())

	last, err := c.Listing(context.Background(), page.NextURL())
	require.NoError(t, err)
	assert.Equal(t, "", last.NextURL())

	snap, err := c.Snapshot(context.Background(), last.Results[0].URL)
	require.NoError(t, err)
	assert.Equal(t, int64(100), snap.Timestamp)
}

func TestClient_ErrorsAreReturned(t *testing.T) {
	api := bitnodestest.New()
	defer api.Close()
	api.FailKind = "latest"

	c := bitnodes.New(api.BaseURL(), api.Client(), nil)
	_, err := c.Latest(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, api.Hits("latest"), "no retries")
}
