package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all trustd tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("blockid-trustd", "0.1.0")
	client := NewTrustClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolGetTrustScore, h.HandleGetTrustScore)
	s.AddTool(ToolExplainTrustScore, h.HandleExplainTrustScore)
	s.AddTool(ToolGetWalletTrend, h.HandleGetWalletTrend)
	s.AddTool(ToolGetAccountImage, h.HandleGetAccountImage)
	s.AddTool(ToolBatchTrustScores, h.HandleBatchTrustScores)

	return s
}
