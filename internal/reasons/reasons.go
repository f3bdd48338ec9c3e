// Package reasons implements explainable trust scoring for BlockID.
//
// Every piece of evidence about a wallet is a reason code carrying a fixed
// signed weight (e.g. RUG_PULL_DEPLOYER = -80). The aggregator combines a
// base rule/ML score with the wallet's deduplicated reasons into a final
// 0-100 trust score, and can reproduce the exact arithmetic as an
// explanation trace. Everything here is pure computation: no I/O, no state.
package reasons

import "sort"

// Default reason weights. Negative weights are penalties; CLEAN_HISTORY is
// the only positive code. VICTIM_OF_SCAM is informational (weight 0).
var defaultWeights = map[string]int{
	// High risk
	"BLACKLISTED_CREATOR":   -90,
	"RUG_PULL_DEPLOYER":     -80,
	"DRAINER_FLOW_DETECTED": -70,
	"SCAM_CLUSTER_MEMBER":   -60,

	// Medium risk
	"HIGH_RISK_TOKEN_INTERACTION": -40,
	"SUSPICIOUS_TOKEN_MINT":       -30,
	"DRAINER_INTERACTION":         -20,
	"HIGH_VALUE_OUTFLOW":          -10,

	// Low risk
	"NEW_WALLET":   -5,
	"LOW_ACTIVITY": -3,

	// Informational
	"VICTIM_OF_SCAM": 0,

	// Positive
	"CLEAN_HISTORY": 10,
}

// Registry is an immutable mapping of reason code to signed weight.
// It is injected into the aggregator at construction so tests can
// substitute alternative weight tables.
type Registry struct {
	weights map[string]int
}

// NewRegistry builds a registry from the given weight table. The table is
// copied; later mutation of the argument does not affect the registry.
func NewRegistry(weights map[string]int) *Registry {
	w := make(map[string]int, len(weights))
	for code, weight := range weights {
		w[code] = weight
	}
	return &Registry{weights: w}
}

// DefaultRegistry returns a registry with the standard BlockID weight table.
func DefaultRegistry() *Registry {
	return NewRegistry(defaultWeights)
}

// Weight returns the weight for a code and whether the code is known.
func (r *Registry) Weight(code string) (int, bool) {
	w, ok := r.weights[code]
	return w, ok
}

// Has reports whether the code is registered.
func (r *Registry) Has(code string) bool {
	_, ok := r.weights[code]
	return ok
}

// Codes returns all registered codes in lexical order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.weights))
	for code := range r.weights {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Reason builds a WeightedReason for a registered code with full confidence.
// Returns false if the code is unknown.
func (r *Registry) Reason(code string) (WeightedReason, bool) {
	w, ok := r.weights[code]
	if !ok {
		return WeightedReason{}, false
	}
	weight := w
	return WeightedReason{Code: code, Weight: &weight, Confidence: 1.0}, true
}

// WeightedReason is a single piece of recorded evidence about a wallet.
// Weight is nullable: upstream detectors occasionally record a finding
// before its weight is assigned, and the aggregator must tolerate that.
type WeightedReason struct {
	Code           string  `json:"code"`
	Weight         *int    `json:"weight"`
	Confidence     float64 `json:"confidence"`
	EvidenceTxHash string  `json:"evidenceTxHash,omitempty"`
	EvidenceLink   string  `json:"evidenceLink,omitempty"`
}
