package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *TrustClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *TrustClient) *Handlers {
	return &Handlers{client: client}
}

// HandleGetTrustScore returns a wallet's latest trust score.
func (h *Handlers) HandleGetTrustScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wallet := req.GetString("wallet", "")
	if wallet == "" {
		return mcp.NewToolResultError("wallet is required"), nil
	}

	raw, err := h.client.GetTrustScore(ctx, wallet)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get trust score: %v", err)), nil
	}

	text, err := formatTrustScore(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse trust score: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleExplainTrustScore returns the arithmetic trace behind a score.
func (h *Handlers) HandleExplainTrustScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wallet := req.GetString("wallet", "")
	if wallet == "" {
		return mcp.NewToolResultError("wallet is required"), nil
	}

	raw, err := h.client.ExplainTrustScore(ctx, wallet)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to explain trust score: %v", err)), nil
	}

	text, err := formatExplanation(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse explanation: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetWalletTrend returns the behavioral trend verdict for a wallet.
func (h *Handlers) HandleGetWalletTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wallet := req.GetString("wallet", "")
	if wallet == "" {
		return mcp.NewToolResultError("wallet is required"), nil
	}

	raw, err := h.client.GetWalletTrend(ctx, wallet)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get wallet trend: %v", err)), nil
	}

	text, err := formatTrend(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse trend: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetAccountImage returns the on-chain account image for a wallet.
func (h *Handlers) HandleGetAccountImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wallet := req.GetString("wallet", "")
	if wallet == "" {
		return mcp.NewToolResultError("wallet is required"), nil
	}

	raw, err := h.client.GetAccountImage(ctx, wallet)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get account image: %v", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// HandleBatchTrustScores returns trust scores for several wallets at once.
func (h *Handlers) HandleBatchTrustScores(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wallets := req.GetStringSlice("wallets", nil)
	if len(wallets) == 0 {
		return mcp.NewToolResultError("wallets is required"), nil
	}

	raw, err := h.client.BatchTrustScores(ctx, wallets)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get batch trust scores: %v", err)), nil
	}

	text, err := formatBatch(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse batch response: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// --- Formatting helpers ---

func formatTrustScore(raw json.RawMessage) (string, error) {
	var resp struct {
		TrustScore map[string]any `json:"trustScore"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	if resp.TrustScore == nil {
		return "", fmt.Errorf("unexpected trust score response format")
	}

	var sb strings.Builder
	sb.WriteString("Wallet Trust Score:\n")
	if v := getString(resp.TrustScore, "wallet"); v != "" {
		fmt.Fprintf(&sb, "  Wallet: %s\n", v)
	}
	if v, ok := getFloat(resp.TrustScore, "score"); ok {
		fmt.Fprintf(&sb, "  Score: %.0f / 100\n", v)
	}
	if v := getString(resp.TrustScore, "riskLevel"); v != "" {
		fmt.Fprintf(&sb, "  Risk Level: %s\n", v)
	}
	if anomalous, ok := resp.TrustScore["isAnomalous"].(bool); ok && anomalous {
		sb.WriteString("  Anomaly flag: set\n")
	}
	if v := getString(resp.TrustScore, "computedAt"); v != "" {
		fmt.Fprintf(&sb, "  Computed: %s\n", v)
	}
	return sb.String(), nil
}

func formatExplanation(raw json.RawMessage) (string, error) {
	var resp struct {
		Wallet      string `json:"wallet"`
		Explanation struct {
			BaseScore     float64 `json:"baseScore"`
			FinalScore    float64 `json:"finalScore"`
			ReasonWeights []struct {
				Code   string  `json:"code"`
				Weight float64 `json:"weight"`
			} `json:"reasonWeights"`
		} `json:"explanation"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Trust Score Explanation:\n")
	if resp.Wallet != "" {
		fmt.Fprintf(&sb, "  Wallet: %s\n", resp.Wallet)
	}
	fmt.Fprintf(&sb, "  Base score: %.0f\n", resp.Explanation.BaseScore)
	if len(resp.Explanation.ReasonWeights) == 0 {
		sb.WriteString("  No reason codes recorded.\n")
	} else {
		sb.WriteString("  Applied reasons:\n")
		for _, r := range resp.Explanation.ReasonWeights {
			fmt.Fprintf(&sb, "    %s: %+.0f\n", r.Code, r.Weight)
		}
	}
	fmt.Fprintf(&sb, "  Final score: %.0f\n", resp.Explanation.FinalScore)
	return sb.String(), nil
}

func formatTrend(raw json.RawMessage) (string, error) {
	var resp struct {
		Wallet  string         `json:"wallet"`
		Trend   map[string]any `json:"trend"`
		Reasons []string       `json:"reasons"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	if resp.Trend == nil {
		return "", fmt.Errorf("unexpected trend response format")
	}

	var sb strings.Builder
	sb.WriteString("Wallet Behavioral Trend:\n")
	if resp.Wallet != "" {
		fmt.Fprintf(&sb, "  Wallet: %s\n", resp.Wallet)
	}
	if v := getString(resp.Trend, "trend"); v != "" {
		fmt.Fprintf(&sb, "  Trend: %s\n", v)
	}
	if shift, ok := resp.Trend["behavioralShiftDetected"].(bool); ok {
		if shift {
			sb.WriteString("  Behavioral shift: DETECTED\n")
		} else {
			sb.WriteString("  Behavioral shift: none\n")
		}
	}
	if v, ok := getFloat(resp.Trend, "reputationDecay"); ok {
		fmt.Fprintf(&sb, "  Reputation decay: %.4f\n", v)
	}
	if len(resp.Reasons) > 0 {
		sb.WriteString("  Reasons:\n")
		for _, r := range resp.Reasons {
			fmt.Fprintf(&sb, "    - %s\n", r)
		}
	}
	return sb.String(), nil
}

func formatBatch(raw json.RawMessage) (string, error) {
	var resp struct {
		Scores []struct {
			Wallet     string         `json:"wallet"`
			TrustScore map[string]any `json:"trustScore"`
		} `json:"scores"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	if len(resp.Scores) == 0 {
		return "No wallets in batch response.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Trust scores for %d wallet(s):\n", len(resp.Scores))
	for _, s := range resp.Scores {
		if s.TrustScore == nil {
			fmt.Fprintf(&sb, "  %s: not scored\n", s.Wallet)
			continue
		}
		score, _ := getFloat(s.TrustScore, "score")
		risk := getString(s.TrustScore, "riskLevel")
		fmt.Fprintf(&sb, "  %s: %.0f (%s)\n", s.Wallet, score, risk)
	}
	return sb.String(), nil
}

func formatJSON(raw json.RawMessage) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	return pretty.String()
}

// getString extracts a string value from a map, trying multiple key names.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%g", f)
			}
		}
	}
	return ""
}

// getFloat extracts a float64 value from a map, trying multiple key names.
func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
