package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// ackTimeout bounds how long a tool call blocks before acknowledging an
// in-flight run instead of its result.
const ackTimeout = 800 * time.Millisecond

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	reg     *core.Registry
}

// runAck is the response body for a run that is still computing.
type runAck struct {
	Status      string        `json:"status"`
	Repo        string        `json:"repo"`
	Period      schema.Period `json:"period"`
	Stage       schema.Stage  `json:"stage"`
	RetryAdvice string        `json:"retry_advice"`
}

func (h *toolHandler) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, period, err := h.resolveTarget(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Kick off the run detached from the tool call: an abandoned chat
	// request must not cancel a shared run other callers coalesced onto.
	type outcome struct {
		result *schema.PipelineResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, runErr := h.reg.Run(context.WithoutCancel(ctx), repo, period)
		done <- outcome{result: result, err: runErr}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("report unavailable: %v", out.err)), nil
		}
		return resultResponse(out.result)

	case <-time.After(ackTimeout):
		// Still computing; acknowledge with the current persisted stage
		stage := schema.StagePending
		if peeked, peekErr := h.reg.Peek(repo, period); peekErr == nil {
			stage = peeked.Stage
		}
		ack := runAck{
			Status:      "accepted",
			Repo:        repo,
			Period:      period,
			Stage:       stage,
			RetryAdvice: "poll get_report_status for the result",
		}
		jsonData, _ := json.MarshalIndent(ack, "", "  ")
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

func (h *toolHandler) handleGetReportStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, period, err := h.resolveTarget(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.reg.Peek(repo, period)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status lookup failed: %v", err)), nil
	}
	return resultResponse(result)
}

// resolveTarget extracts and validates the repo and period arguments,
// falling back to the server defaults for grain and period reference.
func (h *toolHandler) resolveTarget(request mcp.CallToolRequest) (string, schema.Period, error) {
	repo := request.GetString("repo", "")
	if repo == "" {
		return "", schema.Period{}, fmt.Errorf("repo is required, e.g. 'acme/app'")
	}

	grain := h.baseCfg.Grain
	if g := request.GetString("grain", ""); g != "" {
		grain = schema.Grain(g)
		if _, ok := schema.ValidGrains[grain]; !ok {
			return "", schema.Period{}, fmt.Errorf("invalid grain '%s'. must be daily, weekly, monthly", g)
		}
	}

	loc := h.baseCfg.Location
	if loc == nil {
		loc = time.UTC
	}
	ref, err := contract.ParsePeriodReference(request.GetString("period", ""), time.Now().In(loc))
	if err != nil {
		return "", schema.Period{}, err
	}
	period, err := schema.PeriodFor(ref.At, grain, h.baseCfg.WeekStart)
	if err != nil {
		return "", schema.Period{}, err
	}
	if ref.Previous {
		period = period.Prev()
	}
	return repo, period, nil
}

// resultResponse renders a terminal pipeline result: the payload for DONE
// runs, an explicit "report unavailable" for failures, and the bare state
// otherwise.
func resultResponse(result *schema.PipelineResult) (*mcp.CallToolResult, error) {
	if result.Stage == schema.StageFailed {
		return mcp.NewToolResultError(fmt.Sprintf("report unavailable: failed at %s: %s", result.FailedStage, result.Reason)), nil
	}
	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
