package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the BlockID MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolGetTrustScore = mcp.NewTool("get_trust_score",
	mcp.WithDescription(
		"Look up the trust score for a Solana wallet address. "+
			"Returns a 0-100 score and a risk level (LOW/MEDIUM/HIGH). "+
			"Use this before interacting with an unknown wallet."),
	mcp.WithString("wallet",
		mcp.Required(),
		mcp.Description("The wallet's base58 Solana address")),
)

var ToolExplainTrustScore = mcp.NewTool("explain_trust_score",
	mcp.WithDescription(
		"Explain how a wallet's trust score was computed. "+
			"Shows the base score, every reason code with its weight "+
			"(e.g. DRAINER_INTERACTION -20), and the final clamped score."),
	mcp.WithString("wallet",
		mcp.Required(),
		mcp.Description("The wallet's base58 Solana address")),
)

var ToolGetWalletTrend = mcp.NewTool("get_wallet_trend",
	mcp.WithDescription(
		"Get the behavioral trend for a wallet: improving, declining, or stable, "+
			"whether a behavioral shift was detected against its historical baseline, "+
			"the explainable reasons, and the reputation decay factor over inactivity."),
	mcp.WithString("wallet",
		mcp.Required(),
		mcp.Description("The wallet's base58 Solana address")),
)

var ToolGetAccountImage = mcp.NewTool("get_onchain_account",
	mcp.WithDescription(
		"Get the 50-byte on-chain trust-score account image for a wallet, "+
			"base64 encoded, as it would be published to the trust oracle program."),
	mcp.WithString("wallet",
		mcp.Required(),
		mcp.Description("The wallet's base58 Solana address")),
)

var ToolBatchTrustScores = mcp.NewTool("batch_trust_scores",
	mcp.WithDescription(
		"Look up trust scores for multiple wallets in one call (up to 100). "+
			"Wallets that were never scored come back with a null score."),
	mcp.WithArray("wallets",
		mcp.Required(),
		mcp.Description("List of base58 Solana wallet addresses")),
)
