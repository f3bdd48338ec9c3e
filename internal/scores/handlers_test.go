package scores

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockid/trustd/internal/oracle"
	"github.com/blockid/trustd/internal/reasons"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, _, _ := newTestService()
	h := NewHandler(svc)

	r := gin.New()
	h.RegisterRoutes(r.Group("/v1"))
	return r, svc
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetTrustScore_NotScored(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/v1/trust/wallet-x")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "wallet_not_scored")
}

func TestComputeThenGetTrustScore(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/v1/trust/wallet-x/reasons", ReasonsRequest{
		Reasons: reasonSet("DRAINER_INTERACTION", -20),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/v1/trust/wallet-x/compute", ComputeRequest{BaseScore: 90})
	require.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/v1/trust/wallet-x")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TrustScore struct {
			Wallet    string `json:"wallet"`
			BaseScore int    `json:"baseScore"`
			Score     int    `json:"score"`
			RiskLevel string `json:"riskLevel"`
		} `json:"trustScore"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "wallet-x", body.TrustScore.Wallet)
	assert.Equal(t, 90, body.TrustScore.BaseScore)
	assert.Equal(t, 70, body.TrustScore.Score)
	assert.Equal(t, "MEDIUM", body.TrustScore.RiskLevel)
}

func TestExplainEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/v1/trust/wallet-x/reasons", ReasonsRequest{
		Reasons: reasonSet("NEW_WALLET", -5),
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, r, "/v1/trust/wallet-x/compute", ComputeRequest{BaseScore: 50})
	require.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/v1/trust/wallet-x/explain")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Wallet      string `json:"wallet"`
		Explanation struct {
			BaseScore     int `json:"baseScore"`
			FinalScore    int `json:"finalScore"`
			ReasonWeights []struct {
				Code   string `json:"code"`
				Weight int    `json:"weight"`
			} `json:"reasonWeights"`
		} `json:"explanation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 50, body.Explanation.BaseScore)
	assert.Equal(t, 45, body.Explanation.FinalScore)
	require.Len(t, body.Explanation.ReasonWeights, 1)
	assert.Equal(t, "NEW_WALLET", body.Explanation.ReasonWeights[0].Code)
}

func TestTrendEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/v1/trust/wallet-x/compute", ComputeRequest{BaseScore: 60})
	require.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/v1/trust/wallet-x/trend")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Wallet string `json:"wallet"`
		Trend  struct {
			Trend                   string `json:"trend"`
			BehavioralShiftDetected bool   `json:"behavioralShiftDetected"`
		} `json:"trend"`
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "stable", body.Trend.Trend)
	assert.False(t, body.Trend.BehavioralShiftDetected)
	assert.NotEmpty(t, body.Reasons)
}

func TestAccountEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	var pubkey [oracle.WalletLen]byte
	for i := range pubkey {
		pubkey[i] = byte(i + 1)
	}
	wallet := base58.Encode(pubkey[:])

	w := postJSON(t, r, "/v1/trust/"+wallet+"/compute", ComputeRequest{BaseScore: 95})
	require.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/v1/trust/"+wallet+"/account")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Wallet    string `json:"wallet"`
		Account   string `json:"account"`
		Score     int    `json:"score"`
		RiskLevel string `json:"riskLevel"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 95, body.Score)
	assert.Equal(t, "LOW", body.RiskLevel)

	raw, err := base64.StdEncoding.DecodeString(body.Account)
	require.NoError(t, err)
	require.Len(t, raw, oracle.AccountLen)

	account, err := oracle.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, uint8(95), account.Score)
	assert.Equal(t, uint8(0), account.Risk)
	assert.Equal(t, pubkey, account.Wallet)
}

func TestAccountEndpoint_InvalidWallet(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/v1/trust/not-base58-0OIl/account")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_wallet")
}

func TestBatchEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/v1/trust/wallet-a/compute", ComputeRequest{BaseScore: 85})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/v1/trust/batch", BatchRequest{
		Wallets: []string{"wallet-a", "wallet-unknown"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Scores []struct {
			Wallet     string          `json:"wallet"`
			TrustScore json.RawMessage `json:"trustScore"`
		} `json:"scores"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "wallet-a", body.Scores[0].Wallet)
	assert.NotEqual(t, "null", string(body.Scores[0].TrustScore))
	assert.Equal(t, "null", string(body.Scores[1].TrustScore))
}

func TestBatchEndpoint_Validation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/v1/trust/batch", BatchRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tooMany := make([]string, 101)
	for i := range tooMany {
		tooMany[i] = "w"
	}
	w = postJSON(t, r, "/v1/trust/batch", BatchRequest{Wallets: tooMany})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too_many_wallets")
}

// reasonSet builds a single-reason set for request bodies.
func reasonSet(code string, weight int) []reasons.WeightedReason {
	return []reasons.WeightedReason{{Code: code, Weight: &weight, Confidence: 1.0}}
}
