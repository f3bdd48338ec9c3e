package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blockid/trustd/internal/metrics"
)

// Program names used to derive the wire discriminators. These match the
// deployed trust oracle program and must not change independently of it.
const (
	TrustScoreAccountName      = "TrustScoreAccount"
	UpdateTrustScoreInstrument = "update_trust_score"
)

// UpdateInstructionData builds the update_trust_score instruction payload:
// the 8-byte instruction discriminator followed by the score and risk
// bytes. Transaction assembly, signing, and submission belong to the
// transport collaborator.
func UpdateInstructionData(score, risk uint8) []byte {
	disc := InstructionDiscriminator(UpdateTrustScoreInstrument)
	data := make([]byte, 0, DiscriminatorLen+2)
	data = append(data, disc[:]...)
	data = append(data, score, risk)
	return data
}

// Sender submits an encoded update to the ledger. Implementations own
// retries, backoff, and fee policy; the publisher does not.
type Sender interface {
	SendUpdate(ctx context.Context, wallet [WalletLen]byte, instructionData []byte) error
}

// Publisher encodes score updates for the on-chain program and hands them
// to a transport. It performs no network I/O itself.
type Publisher struct {
	sender Sender
	logger *slog.Logger
}

// NewPublisher creates a publisher over the given transport.
func NewPublisher(sender Sender, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{sender: sender, logger: logger}
}

// Publish encodes one wallet's score update and submits it via the
// transport. Scores are clamped to 100 before hitting the wire; the
// on-chain program rejects anything above.
func (p *Publisher) Publish(ctx context.Context, wallet [WalletLen]byte, score, risk uint8) error {
	if score > 100 {
		score = 100
	}
	if err := p.sender.SendUpdate(ctx, wallet, UpdateInstructionData(score, risk)); err != nil {
		return fmt.Errorf("send update: %w", err)
	}
	metrics.AccountsEncodedTotal.Inc()
	p.logger.Info("trust score published",
		"wallet", base58Short(wallet),
		"score", score,
		"risk", risk)
	return nil
}

// AccountBytes returns the 50-byte account image for a wallet's current
// score, stamped with the account discriminator and timestamp. Used to
// verify a read-back against what was published.
func AccountBytes(wallet [WalletLen]byte, score, risk uint8, updatedAt time.Time) []byte {
	a := &Account{
		Wallet:    wallet,
		Score:     score,
		Risk:      risk,
		UpdatedAt: updatedAt.Unix(),
	}
	return a.Encode(AccountDiscriminator(TrustScoreAccountName))
}

func base58Short(wallet [WalletLen]byte) string {
	return shortAddress((&Account{Wallet: wallet}).WalletAddress())
}

func shortAddress(address string) string {
	if len(address) > 16 {
		return address[:16] + "..."
	}
	return address
}
