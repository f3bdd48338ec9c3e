package oracle

import (
	"bytes"
	"encoding/base64"
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	disc := AccountDiscriminator(TrustScoreAccountName)

	for i := 0; i < 200; i++ {
		a := &Account{
			Score:     uint8(rng.Intn(256)),
			Risk:      uint8(rng.Intn(256)),
			UpdatedAt: rng.Int63() - rng.Int63(),
		}
		rng.Read(a.Wallet[:])

		decoded, err := Decode(a.Encode(disc))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !decoded.Equal(a) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, a)
		}
	}
}

func TestDecodeOffsets(t *testing.T) {
	// Golden layout: discriminator | wallet | score | risk | updated_at LE.
	raw := make([]byte, AccountLen)
	for i := 0; i < DiscriminatorLen; i++ {
		raw[i] = 0xDD
	}
	for i := 0; i < WalletLen; i++ {
		raw[DiscriminatorLen+i] = byte(i)
	}
	raw[40] = 87 // score
	raw[41] = 1  // risk
	copy(raw[42:50], []byte{0x15, 0xCD, 0x5B, 0x07, 0x00, 0x00, 0x00, 0x00}) // 123456789 LE

	a, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if a.Score != 87 {
		t.Errorf("score = %d, want 87", a.Score)
	}
	if a.Risk != 1 {
		t.Errorf("risk = %d, want 1", a.Risk)
	}
	if a.UpdatedAt != 123456789 {
		t.Errorf("updated_at = %d, want 123456789", a.UpdatedAt)
	}
	for i := 0; i < WalletLen; i++ {
		if a.Wallet[i] != byte(i) {
			t.Fatalf("wallet byte %d = %d, want %d", i, a.Wallet[i], i)
		}
	}
}

func TestDecodeNegativeTimestamp(t *testing.T) {
	disc := AccountDiscriminator(TrustScoreAccountName)
	a := &Account{UpdatedAt: math.MinInt64}

	decoded, err := Decode(a.Encode(disc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.UpdatedAt != math.MinInt64 {
		t.Errorf("updated_at = %d, want MinInt64", decoded.UpdatedAt)
	}
}

func TestDecodeTooShort(t *testing.T) {
	for _, n := range []int{0, 1, 42, 49} {
		_, err := Decode(make([]byte, n))
		if !errors.Is(err, ErrAccountTooShort) {
			t.Errorf("Decode(%d bytes) error = %v, want ErrAccountTooShort", n, err)
		}
	}
}

func TestDecodeAcceptsLongerInput(t *testing.T) {
	disc := AccountDiscriminator(TrustScoreAccountName)
	a := &Account{Score: 42, Risk: 2, UpdatedAt: 1700000000}

	raw := append(a.Encode(disc), 0x00, 0x00, 0x00, 0x00)
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !decoded.Equal(a) {
		t.Error("trailing bytes should be ignored")
	}
}

func TestEncodeLength(t *testing.T) {
	a := &Account{}
	if got := len(a.Encode(Discriminator{})); got != AccountLen {
		t.Errorf("encoded length = %d, want %d", got, AccountLen)
	}
}

func TestDiscriminators(t *testing.T) {
	// Discriminators are deterministic and distinct per name/kind.
	if AccountDiscriminator("A") == AccountDiscriminator("B") {
		t.Error("different account names must give different discriminators")
	}
	if AccountDiscriminator("X") == InstructionDiscriminator("X") {
		t.Error("account and instruction discriminators use different preimages")
	}
	if AccountDiscriminator("A") != AccountDiscriminator("A") {
		t.Error("discriminators must be deterministic")
	}
}

func TestWalletAddressRoundTrip(t *testing.T) {
	var wallet [WalletLen]byte
	rand.New(rand.NewSource(11)).Read(wallet[:])

	a := &Account{Wallet: wallet}
	parsed, err := ParseWallet(a.WalletAddress())
	if err != nil {
		t.Fatalf("ParseWallet: %v", err)
	}
	if parsed != wallet {
		t.Error("base58 wallet round trip mismatch")
	}
}

func TestParseWalletRejectsBadInput(t *testing.T) {
	if _, err := ParseWallet("not-base58-0OIl"); err == nil {
		t.Error("invalid base58 should fail")
	}
	// Valid base58 but wrong length.
	if _, err := ParseWallet("3mJr7AoUXx2Wqd"); err == nil {
		t.Error("short key should fail")
	}
}

func TestNormalizeAccountData(t *testing.T) {
	raw := []byte{1, 2, 3, 250}
	b64 := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name  string
		input any
		want  []byte
	}{
		{"raw bytes", raw, raw},
		{"base64 string", b64, raw},
		{"string pair", []any{b64, "base64"}, raw},
		{"string slice", []string{b64}, raw},
		{"int slice", []int{1, 2, 3, 250}, raw},
		{"json numbers", []any{float64(1), float64(2), float64(3), float64(250)}, raw},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeAccountData(tc.input)
			if err != nil {
				t.Fatalf("NormalizeAccountData: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeAccountDataRejects(t *testing.T) {
	inputs := []any{
		nil,
		"!!! not base64 !!!",
		[]any{},
		[]any{true},
		[]int{300},
		42,
	}
	for _, input := range inputs {
		if _, err := NormalizeAccountData(input); err == nil {
			t.Errorf("NormalizeAccountData(%v) should fail", input)
		}
	}
}

func TestUpdateInstructionData(t *testing.T) {
	data := UpdateInstructionData(95, 0)
	if len(data) != DiscriminatorLen+2 {
		t.Fatalf("instruction length = %d, want %d", len(data), DiscriminatorLen+2)
	}
	disc := InstructionDiscriminator(UpdateTrustScoreInstrument)
	if !bytes.Equal(data[:DiscriminatorLen], disc[:]) {
		t.Error("instruction discriminator mismatch")
	}
	if data[8] != 95 || data[9] != 0 {
		t.Errorf("score/risk bytes = %d/%d, want 95/0", data[8], data[9])
	}
}
