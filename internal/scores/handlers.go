package scores

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockid/trustd/internal/oracle"
	"github.com/blockid/trustd/internal/reasons"
)

// Handler provides HTTP endpoints for trust scores
type Handler struct {
	service *Service
}

// NewHandler creates a new trust score handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up trust score endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/trust/:wallet", h.GetTrustScore)
	r.GET("/trust/:wallet/explain", h.ExplainTrustScore)
	r.GET("/trust/:wallet/trend", h.GetWalletTrend)
	r.GET("/trust/:wallet/account", h.GetAccountImage)
	r.POST("/trust/:wallet/compute", h.ComputeTrustScore)
	r.POST("/trust/:wallet/reasons", h.PutReasons)
	r.POST("/trust/batch", h.GetBatchTrustScores)
}

// GetTrustScore returns the latest trust score for a single wallet
func (h *Handler) GetTrustScore(c *gin.Context) {
	wallet := c.Param("wallet")

	score, err := h.service.Latest(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Failed to load trust score",
		})
		return
	}
	if score == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "wallet_not_scored",
			"message": "Wallet has no trust score yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trustScore": score})
}

// ExplainTrustScore returns the arithmetic trace behind the latest score.
// GET /v1/trust/:wallet/explain
func (h *Handler) ExplainTrustScore(c *gin.Context) {
	wallet := c.Param("wallet")

	explanation, err := h.service.Explain(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Failed to explain trust score",
		})
		return
	}
	if explanation == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "wallet_not_scored",
			"message": "Wallet has no trust score yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":      wallet,
		"explanation": explanation,
	})
}

// GetWalletTrend runs a behavioral memory cycle seeded from the latest score.
// GET /v1/trust/:wallet/trend
func (h *Handler) GetWalletTrend(c *gin.Context) {
	wallet := c.Param("wallet")

	result, err := h.service.Trend(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "trend_failed",
			"message": "Failed to compute wallet trend",
		})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "wallet_not_scored",
			"message": "Wallet has no trust score yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":  wallet,
		"trend":   result,
		"reasons": result.ReasonStrings(),
	})
}

// GetAccountImage returns the 50-byte on-chain account form of the latest
// score, base64 encoded.
// GET /v1/trust/:wallet/account
func (h *Handler) GetAccountImage(c *gin.Context) {
	wallet := c.Param("wallet")

	pubkey, err := oracle.ParseWallet(wallet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_wallet",
			"message": "Wallet must be a base58 public key",
		})
		return
	}

	score, err := h.service.Latest(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Failed to load trust score",
		})
		return
	}
	if score == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "wallet_not_scored",
			"message": "Wallet has no trust score yet",
		})
		return
	}

	raw := oracle.AccountBytes(pubkey, uint8(score.Score), score.RiskLevel.Byte(), score.ComputedAt)
	c.JSON(http.StatusOK, gin.H{
		"wallet":    wallet,
		"account":   base64.StdEncoding.EncodeToString(raw),
		"score":     score.Score,
		"riskLevel": score.RiskLevel,
		"updatedAt": score.ComputedAt.Unix(),
	})
}

// ComputeRequest is the body of a compute call.
type ComputeRequest struct {
	BaseScore   int  `json:"baseScore" binding:"min=0,max=100"`
	IsAnomalous bool `json:"isAnomalous"`
}

// ComputeTrustScore runs a full scoring cycle for a wallet.
// POST /v1/trust/:wallet/compute
func (h *Handler) ComputeTrustScore(c *gin.Context) {
	wallet := c.Param("wallet")

	var req ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain baseScore in [0,100]",
		})
		return
	}

	result, err := h.service.Compute(c.Request.Context(), wallet, req.BaseScore, req.IsAnomalous)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "compute_failed",
			"message": "Failed to compute trust score",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReasonsRequest is the body of a reason-set replacement.
type ReasonsRequest struct {
	Reasons []reasons.WeightedReason `json:"reasons"`
}

// PutReasons replaces a wallet's recorded reason set.
// POST /v1/trust/:wallet/reasons
func (h *Handler) PutReasons(c *gin.Context) {
	wallet := c.Param("wallet")

	var req ReasonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain a 'reasons' array",
		})
		return
	}

	if err := h.service.RecordReasons(c.Request.Context(), wallet, req.Reasons); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "store_failed",
			"message": "Failed to record reasons",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet": wallet,
		"count":  len(req.Reasons),
	})
}

// BatchRequest asks for the latest scores of several wallets.
type BatchRequest struct {
	Wallets []string `json:"wallets"`
}

// GetBatchTrustScores returns latest scores for multiple wallets.
// POST /v1/trust/batch
func (h *Handler) GetBatchTrustScores(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain 'wallets' array",
		})
		return
	}

	if len(req.Wallets) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "At least one wallet is required",
		})
		return
	}
	if len(req.Wallets) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "too_many_wallets",
			"message": "Maximum 100 wallets per batch request",
		})
		return
	}

	scores := make([]gin.H, 0, len(req.Wallets))
	for _, wallet := range req.Wallets {
		score, err := h.service.Latest(c.Request.Context(), wallet)
		if err != nil || score == nil {
			// Unknown wallets get a null score rather than failing the batch
			scores = append(scores, gin.H{"wallet": wallet, "trustScore": nil})
			continue
		}
		scores = append(scores, gin.H{"wallet": wallet, "trustScore": score})
	}

	c.JSON(http.StatusOK, gin.H{
		"scores": scores,
		"count":  len(scores),
	})
}
