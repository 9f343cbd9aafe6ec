package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenRoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tokens := NewTokenService("test-secret", WithClock(fixedClock(issuedAt)))

	token, err := tokens.Issue(Identity{AdminID: 42, Username: "admin"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.AdminID != 42 {
		t.Errorf("AdminID: got %d, want 42", claims.AdminID)
	}
	if claims.Username != "admin" {
		t.Errorf("Username: got %q, want %q", claims.Username, "admin")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != 24*time.Hour {
		t.Errorf("exp - iat = %v, want 24h", got)
	}
	if !claims.IssuedAt.Equal(issuedAt) {
		t.Errorf("iat = %v, want %v", claims.IssuedAt, issuedAt)
	}
}

func TestTokenExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	token, err := NewTokenService("test-secret", WithClock(fixedClock(issuedAt))).Issue(Identity{AdminID: 1, Username: "a"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"just before expiry", issuedAt.Add(TokenTTL - time.Second), nil},
		{"exactly at expiry", issuedAt.Add(TokenTTL), ErrTokenExpired},
		{"after expiry", issuedAt.Add(TokenTTL + time.Hour), ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService("test-secret", WithClock(fixedClock(tt.at))).Verify(token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify at %v: got %v, want %v", tt.at, err, tt.wantErr)
			}
		})
	}
}

func TestTokenMalformed(t *testing.T) {
	tokens := NewTokenService("test-secret")
	valid, err := tokens.Issue(Identity{AdminID: 1, Username: "admin"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	otherSecret, _ := NewTokenService("other-secret").Issue(Identity{AdminID: 1, Username: "admin"})

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwtClaims{
		AdminID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongAlg, _ := hs512.SignedString([]byte("test-secret"))

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{AdminID: 1})
	withoutExp, _ := noExp.SignedString([]byte("test-secret"))

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := map[string]string{
		"garbage":         "garbage.token.here",
		"empty":           "",
		"wrong secret":    otherSecret,
		"wrong algorithm": wrongAlg,
		"missing exp":     withoutExp,
		"tampered":        tampered,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tokens.Verify(token); !errors.Is(err, ErrTokenMalformed) {
				t.Errorf("got %v, want ErrTokenMalformed", err)
			}
		})
	}
}
