package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/homerank/core"
	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// splitList turns a comma-separated argument into trimmed, non-empty values.
func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *toolHandler) handleRankProperties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	overrides := contract.RankingOverrides{
		Dataset:      request.GetString("dataset", ""),
		Certificates: splitList(request.GetString("certificate", "")),
		Criteria:     splitList(request.GetString("criteria", "")),
		Weights:      request.GetString("weights", ""),
		Rows:         request.GetInt("rows", 0),
		Limit:        request.GetInt("limit", 0),
		Ideals:       request.GetString("ideals", ""),
	}
	if err := contract.RevalidateRanking(cfg, overrides); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid ranking parameters: %v", err)), nil
	}

	result, _, err := core.GetRankResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ranking failed: %v", err)), nil
	}

	report := schema.NewRankingReport(result, cfg.Registry, cfg.ResultLimit)
	jsonData, _ := json.MarshalIndent(report, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListCriteria(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	overrides := contract.RankingOverrides{Dataset: request.GetString("dataset", "")}
	if err := contract.RevalidateRanking(cfg, overrides); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	overview, err := core.GetCriteriaResults(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing criteria failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(overview, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
