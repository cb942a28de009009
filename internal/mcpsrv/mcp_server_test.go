package mcpsrv_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/iostore"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/mcpsrv"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/seeddata"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

type testManager struct {
	store contract.Store
}

func (m *testManager) GetPipelineStore() contract.Store             { return m.store }
func (m *testManager) GetRunHistoryStore() contract.RunHistoryStore { return nil }

// newTestRegistry wires a registry over a SQLite-backed store and the
// deterministic seed generator, matching how the serve command wires it.
func newTestRegistry(t *testing.T) (*core.Registry, *contract.Config) {
	t.Helper()

	store, err := iostore.NewPipelineStore("fika_pipeline_store", schema.SQLiteBackend, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &contract.Config{
		Grain:           schema.WeeklyGrain,
		WeekStart:       time.Monday,
		Location:        time.UTC,
		LookbackPeriods: 4,
		MinSamples:      2,
		ZThreshold:      2.0,
		Workers:         1,
	}
	pipe := core.NewPipeline(seeddata.NewGenerator(42), &testManager{store: store}, cfg)
	return core.NewRegistry(pipe), cfg
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func textContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	reg, cfg := newTestRegistry(t)
	s := mcpsrv.NewMCPServer(cfg, reg)

	t.Run("get_report missing repo", func(t *testing.T) {
		res := callTool(t, s, "get_report", map[string]any{})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, textContent(t, res), "repo is required")
	})

	t.Run("get_report invalid period reference", func(t *testing.T) {
		res := callTool(t, s, "get_report", map[string]any{
			"repo":   "acme/app",
			"period": "sometime soon",
		})
		assert.True(t, res.IsError)
		assert.Contains(t, textContent(t, res), "invalid period reference")
	})

	t.Run("get_report_status invalid grain", func(t *testing.T) {
		res := callTool(t, s, "get_report_status", map[string]any{
			"repo":  "acme/app",
			"grain": "hourly",
		})
		assert.True(t, res.IsError)
		assert.Contains(t, textContent(t, res), "invalid grain")
	})
}

func TestMCPServerReportRoundTrip(t *testing.T) {
	reg, cfg := newTestRegistry(t)
	s := mcpsrv.NewMCPServer(cfg, reg)

	// A fresh key reports PENDING before any run
	res := callTool(t, s, "get_report_status", map[string]any{"repo": "acme/app"})
	require.False(t, res.IsError)

	var status schema.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &status))
	assert.Equal(t, schema.StagePending, status.Stage)
	assert.Nil(t, status.Payload)

	// Seeded runs finish well inside the ack window, so the report comes back directly
	res = callTool(t, s, "get_report", map[string]any{"repo": "acme/app"})
	require.False(t, res.IsError)

	var result schema.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &result))
	assert.Equal(t, schema.StageDone, result.Stage)
	require.NotNil(t, result.Payload)
	assert.Equal(t, "acme/app", result.Payload.Repo)
	assert.NotEmpty(t, result.Payload.AuthorAggregates)

	// The status tool now serves the stored report
	res = callTool(t, s, "get_report_status", map[string]any{"repo": "acme/app"})
	require.False(t, res.IsError)
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &status))
	assert.Equal(t, schema.StageDone, status.Stage)
	require.NotNil(t, status.Payload)
	assert.Equal(t, result.Payload.RepoAggregate, status.Payload.RepoAggregate)
}
