// ABOUTME: Tests for advisory token decoding and expiry checks
// ABOUTME: Uses golang-jwt to mint real tokens and hand-built segments for malformed input

package jwtclaims

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mint(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func rawToken(payload string) string {
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func TestDecode_ValidToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tok := mint(t, jwt.MapClaims{"user_id": 7, "username": "anna", "exp": exp})

	c, ok := Decode(tok)
	if !ok {
		t.Fatal("expected token to decode")
	}
	if c.SubjectID != 7 {
		t.Errorf("expected subject 7, got %d", c.SubjectID)
	}
	if c.Username != "anna" {
		t.Errorf("expected username anna, got %s", c.Username)
	}
	if c.ExpiresAt != float64(exp) {
		t.Errorf("expected exp %d, got %f", exp, c.ExpiresAt)
	}
	if c.Expiry().Unix() != exp {
		t.Errorf("expected Expiry() %d, got %d", exp, c.Expiry().Unix())
	}
}

func TestDecode_OnlyExpRequired(t *testing.T) {
	c, ok := Decode(rawToken(`{"exp": 1700000000}`))
	if !ok {
		t.Fatal("expected payload with exp only to decode")
	}
	if c.Username != "" || c.SubjectID != 0 {
		t.Errorf("expected zero optional fields, got %+v", c)
	}
}

func TestDecode_HeaderIsIgnored(t *testing.T) {
	tok := "not-a-header." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":1}`)) + ".x"
	if _, ok := Decode(tok); !ok {
		t.Error("expected decode to look at the payload segment only")
	}
}

func TestDecode_PaddedAndStandardAlphabet(t *testing.T) {
	// Encodes to "...w7w/Pz4ifQ==" in the standard alphabet.
	payload := `{"exp":1,"username":"ü??>"}`
	std := base64.StdEncoding.EncodeToString([]byte(payload))
	if _, ok := Decode("h." + std + ".s"); !ok {
		t.Errorf("expected standard padded base64 to decode: %s", std)
	}
	url := base64.URLEncoding.EncodeToString([]byte(payload))
	if _, ok := Decode("h." + url + ".s"); !ok {
		t.Errorf("expected padded URL base64 to decode: %s", url)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "a.b"},
		{"four segments", "a.b.c.d"},
		{"empty payload", "a..c"},
		{"invalid base64", "a.!!!.c"},
		{"not json", rawToken("hello")},
		{"json array", rawToken(`[1,2,3]`)},
		{"json null", rawToken(`null`)},
		{"missing exp", rawToken(`{"username":"anna"}`)},
		{"string exp", rawToken(`{"exp":"1700000000"}`)},
		{"null exp", rawToken(`{"exp":null}`)},
		{"overflowing exp", rawToken(`{"exp":1e999}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c, ok := Decode(tt.token); ok {
				t.Errorf("expected decode failure, got %+v", c)
			}
		})
	}
}

func TestIsExpiredAt(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"future", rawToken(`{"exp":1700000060}`), false},
		{"past", rawToken(`{"exp":1699999940}`), true},
		{"exactly now", rawToken(`{"exp":1700000000}`), true},
		{"fraction after now", rawToken(`{"exp":1700000000.5}`), false},
		{"missing exp", rawToken(`{"username":"x"}`), true},
		{"garbage", "garbage", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpiredAt(tt.token, now); got != tt.want {
				t.Errorf("IsExpiredAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsExpired_UsesWallClock(t *testing.T) {
	fresh := mint(t, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	stale := mint(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})

	if IsExpired(fresh) {
		t.Error("expected fresh token to be valid")
	}
	if !IsExpired(stale) {
		t.Error("expected stale token to be expired")
	}
}
