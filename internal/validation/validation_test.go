package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIsValidWalletAddress(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"11111111111111111111111111111111", true},            // system program, 32 chars
		{"So11111111111111111111111111111111111111112", true}, // wrapped SOL mint
		{"4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T", true},

		// Invalid cases
		{"", false},
		{"short", false},
		{"0x1234567890123456789012345678901234567890", false},             // hex, has 0
		{"O1111111111111111111111111111111", false},                       // capital O not in base58
		{"l1111111111111111111111111111111", false},                       // lowercase l not in base58
		{strings.Repeat("1", 31), false},                                  // too short
		{strings.Repeat("1", 45), false},                                  // too long
		{"4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4!", false},           // bad char
	}

	for _, tc := range tests {
		result := IsValidWalletAddress(tc.addr)
		if result != tc.valid {
			t.Errorf("IsValidWalletAddress(%q) = %v, want %v", tc.addr, result, tc.valid)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"hello", 10, "hello"},
		{"  hello  ", 10, "hello"},
		{"hello world", 5, "hello"},
		{"hello\x00world", 20, "helloworld"},
	}

	for _, tc := range tests {
		result := SanitizeString(tc.input, tc.maxLen)
		if result != tc.expected {
			t.Errorf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.maxLen, result, tc.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	// Test valid input
	errors := Validate(
		Required("name", "John"),
		ValidWallet("wallet", "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"),
	)
	if len(errors) != 0 {
		t.Errorf("Expected no errors, got %v", errors)
	}

	// Test invalid input
	errors = Validate(
		Required("name", ""),
		ValidWallet("wallet", "invalid"),
	)
	if len(errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errors))
	}
}

func TestMaxLength(t *testing.T) {
	// Under limit
	err := MaxLength("field", "hello", 10)()
	if err != nil {
		t.Error("Expected no error for string under limit")
	}

	// At limit
	err = MaxLength("field", "hello", 5)()
	if err != nil {
		t.Error("Expected no error for string at limit")
	}

	// Over limit
	err = MaxLength("field", "hello world", 5)()
	if err == nil {
		t.Error("Expected error for string over limit")
	}
}

func TestWalletParamMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/trust/:wallet", WalletParamMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"wallet": c.Param("wallet")})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/trust/11111111111111111111111111111111", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid wallet: status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/trust/not-a-wallet", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid wallet: status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_wallet") {
		t.Errorf("invalid wallet: body = %s, want invalid_wallet error", w.Body.String())
	}
}
