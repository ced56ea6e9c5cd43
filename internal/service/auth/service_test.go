package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/repository/memory"
	"github.com/FordLabs/PeopleMover/pkg/config"
	jwtpkg "github.com/FordLabs/PeopleMover/pkg/jwt"
	"github.com/FordLabs/PeopleMover/pkg/logger"
)

func testConfig() config.APIConfig {
	return config.APIConfig{JWTSecret: "test-secret", JWTIssuer: "peoplemover", AccessTokenTTL: time.Minute}
}

func TestExchangeWithoutProviderIssuesLocalToken(t *testing.T) {
	store := memory.New()
	svc := New(store, store, logger.Discard(), testConfig())
	ctx := context.Background()

	resp, err := svc.Exchange(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(60), resp.ExpiresIn)

	info, err := svc.Validate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "JDOE", info.Sub)
	assert.Equal(t, "peoplemover", info.Issuer)

	refreshed, err := svc.Refresh(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Exchange(ctx, " ")
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)
}

func TestAuthorizeRejectsBadTokens(t *testing.T) {
	store := memory.New()
	svc := New(store, store, logger.Discard(), testConfig())

	_, err := svc.Authorize(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Authorize(context.Background(), "INVALID_TOKEN")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestExchangeAgainstProvider(t *testing.T) {
	idpToken, err := jwtpkg.GenerateToken("jane", "jane@ford.com", "idp", "idp-secret", time.Hour)
	require.NoError(t, err)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  idpToken,
			"token_type":    "bearer",
			"refresh_token": "refresh-" + r.Form.Get("grant_type"),
			"expires_in":    3600,
		})
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.OAuthClientID = "peoplemover"
	cfg.OAuthClientSecret = "secret"
	cfg.OAuthAuthURL = provider.URL + "/authorize"
	cfg.OAuthTokenURL = provider.URL + "/token"
	store := memory.New()
	svc := New(store, store, logger.Discard(), cfg)
	ctx := context.Background()

	resp, err := svc.Exchange(ctx, "code-123")
	require.NoError(t, err)
	assert.Equal(t, "refresh-authorization_code", resp.RefreshToken)
	info, err := svc.Validate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "JANE", info.Sub)
	assert.Equal(t, "jane@ford.com", info.Email)

	refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-refresh_token", refreshed.RefreshToken)
}

func TestAuthenticateForSpace(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.CreateSpace(ctx, &domain.Space{UUID: "space-1", Name: "Flipping Sweet"}, "JDOE"))
	svc := New(store, store, logger.Discard(), testConfig())

	member, err := svc.Exchange(ctx, "jdoe")
	require.NoError(t, err)
	stranger, err := svc.Exchange(ctx, "stranger")
	require.NoError(t, err)

	assert.NoError(t, svc.AuthenticateForSpace(ctx, member.AccessToken, "flipping sweet"))
	assert.ErrorIs(t, svc.AuthenticateForSpace(ctx, stranger.AccessToken, "Flipping Sweet"), authz.ErrForbidden)
	assert.ErrorIs(t, svc.AuthenticateForSpace(ctx, member.AccessToken, "Nope"), repository.ErrNotFound)
}
