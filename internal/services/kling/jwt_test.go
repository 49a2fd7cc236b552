package kling

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignTokenClaimsAndSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token, err := SignToken("ak", "sk", now)
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal claims: %v", err)
	}
	if raw["iss"] != "ak" || raw["exp"] != float64(now.Unix()+1800) || raw["nbf"] != float64(now.Unix()-5) {
		t.Fatalf("unexpected claims %v", raw)
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return []byte("sk"), nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		t.Fatalf("token did not verify: %v", err)
	}
	if parsed.Header["typ"] != "JWT" {
		t.Fatalf("unexpected header %v", parsed.Header)
	}

	_, err = jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte("other"), nil },
		jwt.WithTimeFunc(func() time.Time { return now }))
	if err == nil {
		t.Fatal("expected signature mismatch with the wrong secret")
	}
}

func TestSignTokenRequiresKeys(t *testing.T) {
	if _, err := SignToken("", "sk", time.Now()); err == nil {
		t.Fatal("expected error without access key")
	}
	if _, err := SignToken("ak", "", time.Now()); err == nil {
		t.Fatal("expected error without secret key")
	}
}
