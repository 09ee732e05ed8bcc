// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Homerank MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Homerank Ranking Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: rank_properties ---
	s.AddTool(mcp.NewTool("rank_properties",
		mcp.WithDescription("Rank housing listings with SAW normalization and TOPSIS preference scores."),
		mcp.WithString("dataset", mcp.Description("Path to the CSV dataset (defaults to the configured dataset).")),
		mcp.WithString("certificate", mcp.Description("Comma-separated certificate filter, by code (SHM, HGB, HP, Lainnya) or full name.")),
		mcp.WithString("criteria", mcp.Description("Comma-separated criterion names to rank on. Defaults to every registered criterion.")),
		mcp.WithString("weights", mcp.Description("Raw weights such as 'Price_Sudah:30,Kamar Tidur:20'. They are normalized to sum to 1.")),
		mcp.WithNumber("rows", mcp.Description("Use only the first N rows of the dataset (0 for all).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of ranked items returned.")),
		mcp.WithString("ideals", mcp.Description("How TOPSIS picks ideal points. Defaults to 'direction'."), mcp.Enum("direction", "normalized")),
	), h.handleRankProperties)

	// --- 2. Tool: list_criteria ---
	s.AddTool(mcp.NewTool("list_criteria",
		mcp.WithDescription("List the ranking criteria with direction, unit and valid range, plus dataset statistics."),
		mcp.WithString("dataset", mcp.Description("Path to the CSV dataset to summarize.")),
	), h.handleListCriteria)

	return s
}

// StartMCPServer starts the Homerank MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
