// Package mcpsrv provides the Model Context Protocol (MCP) server implementation.
package mcpsrv

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
)

// NewMCPServer initializes and configures the fika MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, reg *core.Registry) *server.MCPServer {
	s := server.NewMCPServer(
		"Fika Engineering Insights Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		reg:     reg,
	}

	// --- 1. Tool: get_report ---
	s.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Compute or fetch the engineering insights report for a repository period. Long computations are acknowledged immediately; poll get_report_status for the result."),
		mcp.WithString("repo", mcp.Description("Repository full name, e.g. 'acme/app'."), mcp.Required()),
		mcp.WithString("grain", mcp.Description("Aggregation grain (daily, weekly, monthly). Defaults to the server grain."), mcp.Enum("daily", "weekly", "monthly")),
		mcp.WithString("period", mcp.Description("Period reference: 'current', 'previous', or an ISO date inside the period.")),
	), h.handleGetReport)

	// --- 2. Tool: get_report_status ---
	s.AddTool(mcp.NewTool("get_report_status",
		mcp.WithDescription("Check the pipeline state for a repository period without starting a run. Returns the stored report when the run is done."),
		mcp.WithString("repo", mcp.Description("Repository full name, e.g. 'acme/app'."), mcp.Required()),
		mcp.WithString("grain", mcp.Description("Aggregation grain (daily, weekly, monthly)."), mcp.Enum("daily", "weekly", "monthly")),
		mcp.WithString("period", mcp.Description("Period reference: 'current', 'previous', or an ISO date inside the period.")),
	), h.handleGetReportStatus)

	return s
}

// StartMCPServer starts the fika MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, reg *core.Registry) error {
	s := NewMCPServer(baseCfg, reg)
	return server.ServeStdio(s)
}
