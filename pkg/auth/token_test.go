package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclaimtech/buyback-backend/pkg/config"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:              "test-secret",
		Issuer:              "buyback-test",
		ExpirationMinutes:   15,
		RefreshTokenMinutes: 60,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	// Parse validates expiry against the wall clock, so mint relative to now.
	now := time.Now()
	partnerID := uuid.New()

	payload := AccessTokenPayload{
		UserID:    uuid.New(),
		PartnerID: &partnerID,
		Role:      enums.ActorRolePartner,
		JTI:       "jti-123",
	}

	signed, err := MintAccessToken(cfg, now, payload)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := ParseAccessToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, payload.UserID, claims.UserID)
	require.NotNil(t, claims.PartnerID)
	assert.Equal(t, partnerID, *claims.PartnerID)
	assert.Equal(t, enums.ActorRolePartner, claims.Role)
	assert.Equal(t, "jti-123", claims.ID)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
}

func TestMintAccessToken_GeneratesJTI(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleUser,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, signed)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestMintAccessToken_Validation(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	_, err := MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 5}, now, AccessTokenPayload{Role: enums.ActorRoleUser})
	assert.Error(t, err)

	_, err = MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.ActorRole("ghost")})
	assert.Error(t, err)

	_, err = MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.ActorRolePartner})
	assert.Error(t, err, "partner role without partner id")
}

func TestParseAccessToken_RejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	past := time.Now().Add(-2 * time.Hour)

	signed, err := MintAccessToken(cfg, past, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleUser,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	assert.Error(t, err)

	claims, err := ParseAccessTokenAllowExpired(cfg, signed)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestParseAccessToken_RejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleAdmin,
	})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different-secret"
	_, err = ParseAccessToken(other, signed)
	assert.Error(t, err)
}
