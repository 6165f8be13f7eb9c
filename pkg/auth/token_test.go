package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/freightdesk-backend/pkg/config"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:   "secret",
		Issuer:   "https://auth.example.com",
		Audience: "authenticated",
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, 30*time.Minute, AccessTokenPayload{
		UserID: userID,
		Email:  "buyer@example.com",
		Role:   enums.ProfileRoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	got, err := claims.UserID()
	if err != nil || got != userID {
		t.Fatalf("expected user id %s, got %s (%v)", userID, got, err)
	}
	if claims.Email != "buyer@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Role != enums.ProfileRoleCustomer {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be populated")
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	cfg.Secret = "other"
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Hour, AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseAccessTokenWrongAudience(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	cfg.Audience = "service_role"
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected audience mismatch to fail")
	}
}

func TestParseAccessTokenRejectsNonUUIDSubject(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "service-account",
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected non-uuid subject to fail")
	}
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing subject error")
	}
	if _, err := MintAccessToken(cfg, time.Now(), 0, AccessTokenPayload{UserID: uuid.New()}); err == nil {
		t.Fatal("expected ttl error")
	}
	if _, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{UserID: uuid.New(), Role: "owner"}); err == nil {
		t.Fatal("expected invalid role error")
	}
}
