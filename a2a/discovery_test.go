package a2a_test

import (
	"context"
	"testing"

	"github.com/hupe1980/opsmesh/a2a"
	"github.com/hupe1980/opsmesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryClient_FetchCard(t *testing.T) {
	srv := testutil.StartAgent("PlannerAgent", func(string) string { return "ok" })
	defer srv.Close()

	d := a2a.NewDiscoveryClient()
	card, err := d.FetchCard(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "PlannerAgent", card.Name)
	assert.Equal(t, srv.URL, card.URL)
	assert.NotEmpty(t, card.Skills)
}

func TestDiscoveryClient_SkipsUnreachableEndpoints(t *testing.T) {
	up := testutil.StartAgent("ExecutorAgent", func(string) string { return "ok" })
	defer up.Close()

	down := testutil.StartAgent("DownAgent", func(string) string { return "ok" })
	down.Close() // already closed: connection refused at discovery time

	d := a2a.NewDiscoveryClient()
	registry := d.Discover(context.Background(), []a2a.Endpoint{
		{Name: "ExecutorAgent", URL: up.URL},
		{Name: "DownAgent", URL: down.URL},
	})

	assert.Equal(t, 1, registry.Len())
	assert.True(t, registry.Known("ExecutorAgent"))
	assert.False(t, registry.Known("DownAgent"))
}

func TestRegistry_Names(t *testing.T) {
	registry := a2a.NewRegistry(
		a2a.AgentCard{Name: "b"},
		a2a.AgentCard{Name: "a"},
	)
	assert.Equal(t, []string{"a", "b"}, registry.Names())
}
