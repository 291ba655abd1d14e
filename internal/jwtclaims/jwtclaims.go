// ABOUTME: Advisory decoding of bearer token payloads without signature checks
// ABOUTME: Used for expiry hints and display only; the server decides validity

package jwtclaims

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the unverified payload of a bearer token. It is a hint, not an
// identity: nothing here has been checked against a signature. It does not
// implement jwt.Claims on purpose.
type Claims struct {
	SubjectID int64
	Username  string
	ExpiresAt float64 // epoch seconds
}

// Expiry returns ExpiresAt as a time.
func (c Claims) Expiry() time.Time {
	sec, frac := math.Modf(c.ExpiresAt)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode parses the middle segment of token. It returns false for anything
// that is not three segments with a JSON object payload carrying a numeric
// exp claim.
func Decode(token string) (Claims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[1] == "" {
		return Claims{}, false
	}

	// Accept the standard alphabet as well as the URL-safe one.
	seg := strings.NewReplacer("+", "-", "/", "_").Replace(parts[1])
	raw, err := segmentParser.DecodeSegment(seg)
	if err != nil {
		return Claims{}, false
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return Claims{}, false
	}

	exp, ok := payload["exp"].(float64)
	if !ok || math.IsNaN(exp) || math.IsInf(exp, 0) {
		return Claims{}, false
	}

	c := Claims{ExpiresAt: exp}
	if id, ok := payload["user_id"].(float64); ok {
		c.SubjectID = int64(id)
	}
	if name, ok := payload["username"].(string); ok {
		c.Username = name
	}
	return c, true
}

// IsExpired reports whether token is unusable as of now.
func IsExpired(token string) bool {
	return IsExpiredAt(token, time.Now())
}

// IsExpiredAt reports whether token cannot be decoded or its exp is at or
// before now.
func IsExpiredAt(token string, now time.Time) bool {
	c, ok := Decode(token)
	if !ok {
		return true
	}
	return c.ExpiresAt*1000 <= float64(now.UnixMilli())
}
