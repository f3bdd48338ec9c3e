// Package oracle implements the wire contract with the BlockID on-chain
// trust score program.
//
// A trust score account is a fixed 50-byte record:
//
//	bytes [0:8)   discriminator (owned by the on-chain program, passed through)
//	bytes [8:40)  wallet public key
//	byte  [40]    score, 0-100
//	byte  [41]    risk level
//	bytes [42:50) updated_at, little-endian signed 64-bit unix seconds
//
// Any system re-implementing this layout must match the offsets exactly or
// interoperability with the ledger breaks.
package oracle

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Account layout constants.
const (
	DiscriminatorLen = 8
	WalletLen        = 32
	AccountLen       = DiscriminatorLen + WalletLen + 1 + 1 + 8 // 50
)

// ErrAccountTooShort is returned when account data is shorter than the
// fixed record length.
var ErrAccountTooShort = errors.New("oracle: account data too short")

// Discriminator is the 8-byte account or instruction tag used by the
// on-chain program.
type Discriminator [DiscriminatorLen]byte

// AccountDiscriminator derives the discriminator for a named program
// account: the first 8 bytes of sha256("account:<Name>").
func AccountDiscriminator(name string) Discriminator {
	return discriminator("account:" + name)
}

// InstructionDiscriminator derives the discriminator for a named program
// instruction: the first 8 bytes of sha256("global:<name>").
func InstructionDiscriminator(name string) Discriminator {
	return discriminator("global:" + name)
}

func discriminator(preimage string) Discriminator {
	sum := sha256.Sum256([]byte(preimage))
	var d Discriminator
	copy(d[:], sum[:DiscriminatorLen])
	return d
}

// Account is the decoded trust score record.
type Account struct {
	Wallet    [WalletLen]byte
	Score     uint8
	Risk      uint8
	UpdatedAt int64
}

// WalletAddress returns the wallet public key in base58 text form.
func (a *Account) WalletAddress() string {
	return base58.Encode(a.Wallet[:])
}

// ParseWallet decodes a base58 wallet address into its 32 raw bytes.
func ParseWallet(address string) ([WalletLen]byte, error) {
	var wallet [WalletLen]byte
	raw, err := base58.Decode(address)
	if err != nil {
		return wallet, fmt.Errorf("oracle: invalid wallet address: %w", err)
	}
	if len(raw) != WalletLen {
		return wallet, fmt.Errorf("oracle: wallet address must decode to %d bytes, got %d", WalletLen, len(raw))
	}
	copy(wallet[:], raw)
	return wallet, nil
}

// Decode parses already-normalized account bytes. Input longer than 50
// bytes is accepted (the program may grow the account); shorter input
// fails with ErrAccountTooShort. The discriminator is opaque here.
func Decode(raw []byte) (*Account, error) {
	if len(raw) < AccountLen {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrAccountTooShort, AccountLen, len(raw))
	}

	a := &Account{}
	copy(a.Wallet[:], raw[DiscriminatorLen:DiscriminatorLen+WalletLen])
	a.Score = raw[DiscriminatorLen+WalletLen]
	a.Risk = raw[DiscriminatorLen+WalletLen+1]
	a.UpdatedAt = int64(binary.LittleEndian.Uint64(raw[DiscriminatorLen+WalletLen+2 : AccountLen]))
	return a, nil
}

// Encode produces the exact 50-byte wire form of the account. It is the
// inverse of Decode: Decode(a.Encode(d)) yields a again for any valid
// account.
func (a *Account) Encode(disc Discriminator) []byte {
	buf := make([]byte, AccountLen)
	copy(buf[:DiscriminatorLen], disc[:])
	copy(buf[DiscriminatorLen:], a.Wallet[:])
	buf[DiscriminatorLen+WalletLen] = a.Score
	buf[DiscriminatorLen+WalletLen+1] = a.Risk
	binary.LittleEndian.PutUint64(buf[DiscriminatorLen+WalletLen+2:], uint64(a.UpdatedAt))
	return buf
}

// Equal reports field equality between two accounts.
func (a *Account) Equal(b *Account) bool {
	return b != nil &&
		bytes.Equal(a.Wallet[:], b.Wallet[:]) &&
		a.Score == b.Score &&
		a.Risk == b.Risk &&
		a.UpdatedAt == b.UpdatedAt
}
