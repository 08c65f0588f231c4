package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: userID, Role: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role, got %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %q, got %q", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %v", got)
	}
}

func TestMintAccessTokenRejectsBadInput(t *testing.T) {
	cfg := testConfig()
	now := time.Now()

	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.New(), Role: "owner"}); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.UserRoleCustomer}); err == nil {
		t.Fatal("expected error for missing user id")
	}
	cfg.Secret = ""
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := testConfig()
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, expired); err == nil {
		t.Fatal("expected expired token to fail")
	}

	valid, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, valid); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
	other = cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, valid); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{
		UserID:           payload.UserID,
		Role:             payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: cfg.Issuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ParseAccessToken(cfg, unsigned); err == nil {
		t.Fatal("expected alg=none token to fail")
	}

	if _, err := ParseAccessToken(cfg, strings.Repeat("x", 20)); err == nil {
		t.Fatal("expected garbage token to fail")
	}
}

func TestParseAccessTokenClaimConsistency(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	userID := uuid.New()

	sign := func(claims AccessTokenClaims) string {
		t.Helper()
		signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return signed
	}
	registered := func(subject string, issuedAt time.Time) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	mismatched := sign(AccessTokenClaims{UserID: userID, Role: enums.UserRoleAdmin, RegisteredClaims: registered(uuid.NewString(), now)})
	if _, err := ParseAccessToken(cfg, mismatched); err == nil {
		t.Fatal("expected subject mismatch to fail")
	}

	future := sign(AccessTokenClaims{UserID: userID, Role: enums.UserRoleAdmin, RegisteredClaims: registered(userID.String(), now.Add(10*time.Minute))})
	if _, err := ParseAccessToken(cfg, future); err == nil {
		t.Fatal("expected token issued in the future to fail")
	}

	skewed := sign(AccessTokenClaims{UserID: userID, Role: enums.UserRoleAdmin, RegisteredClaims: registered(userID.String(), now.Add(5*time.Second))})
	claims, err := ParseAccessToken(cfg, skewed)
	if err != nil {
		t.Fatalf("expected small clock skew to be tolerated: %v", err)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected role %q", claims.Role)
	}
}
