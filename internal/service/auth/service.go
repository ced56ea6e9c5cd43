package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"golang.org/x/oauth2"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/pkg/config"
	jwtpkg "github.com/FordLabs/PeopleMover/pkg/jwt"
)

// ErrUnauthorized reports a missing or invalid bearer token.
var ErrUnauthorized = errors.New("auth: unauthorized")

// Service validates bearer tokens and brokers OAuth token exchanges.
type Service struct {
	spaces   repository.SpaceRepository
	mappings repository.UserSpaceRepository
	oauth    *oauth2.Config
	logger   *slog.Logger
	cfg      config.APIConfig
}

// New constructs a Service. OAuth exchange is enabled when cfg carries client settings.
func New(spaces repository.SpaceRepository, mappings repository.UserSpaceRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	s := Service{spaces: spaces, mappings: mappings, logger: logger, cfg: cfg}
	if cfg.OAuthEnabled() {
		s.oauth = &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
			Scopes: []string{"openid", "profile", "email"},
		}
	}
	return s
}

// TokenResponse is returned by the token endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenInfo describes a validated token.
type TokenInfo struct {
	Sub       string `json:"sub"`
	Email     string `json:"email,omitempty"`
	Issuer    string `json:"iss"`
	ExpiresAt int64  `json:"exp"`
}

// Authorize validates a bearer token and returns its claims.
func (s Service) Authorize(_ context.Context, token string) (*jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: token required", ErrUnauthorized)
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

// Validate returns the identity carried by token.
func (s Service) Validate(ctx context.Context, token string) (TokenInfo, error) {
	claims, err := s.Authorize(ctx, token)
	if err != nil {
		return TokenInfo{}, err
	}
	info := TokenInfo{Sub: claims.UserID(), Email: claims.Email, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.UnixMilli()
	}
	return info, nil
}

// Exchange trades an authorization code for a PeopleMover access token. Without
// an identity provider configured the code itself names the user.
func (s Service) Exchange(ctx context.Context, accessCode string) (TokenResponse, error) {
	accessCode = strings.TrimSpace(accessCode)
	if accessCode == "" {
		return TokenResponse{}, fmt.Errorf("%w: accessCode is required", repository.ErrInvalidArgument)
	}
	if s.oauth == nil {
		return s.issue(accessCode, "", "")
	}
	token, err := s.oauth.Exchange(ctx, accessCode)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("%w: exchange access code: %v", repository.ErrInvalidArgument, err)
	}
	return s.fromProvider(token)
}

// Refresh renews an access token. With an identity provider the argument is the
// provider's refresh token; otherwise it is a still-valid PeopleMover token.
func (s Service) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenResponse{}, fmt.Errorf("%w: token required", ErrUnauthorized)
	}
	if s.oauth == nil {
		claims, err := s.Authorize(ctx, refreshToken)
		if err != nil {
			return TokenResponse{}, err
		}
		return s.issue(claims.Subject, claims.Email, "")
	}
	token, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}).Token()
	if err != nil {
		return TokenResponse{}, fmt.Errorf("%w: refresh: %v", ErrUnauthorized, err)
	}
	return s.fromProvider(token)
}

// AuthenticateForSpace checks that token is valid and belongs to a member of
// the space with the given name.
func (s Service) AuthenticateForSpace(ctx context.Context, token, spaceName string) error {
	claims, err := s.Authorize(ctx, token)
	if err != nil {
		return err
	}
	space, err := s.spaces.GetSpaceByName(ctx, spaceName)
	if err != nil {
		return fmt.Errorf("space %q: %w", spaceName, err)
	}
	if _, err := s.mappings.GetMapping(ctx, claims.UserID(), space.UUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s is not a member of %s", authz.ErrForbidden, claims.UserID(), space.Name)
		}
		return err
	}
	return nil
}

func (s Service) fromProvider(token *oauth2.Token) (TokenResponse, error) {
	raw := token.AccessToken
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		raw = idToken
	}
	subject, email, err := jwtpkg.Identity(raw)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("%w: provider token: %v", ErrUnauthorized, err)
	}
	return s.issue(subject, email, token.RefreshToken)
}

func (s Service) issue(subject, email, refreshToken string) (TokenResponse, error) {
	subject = domain.NormalizeUserID(subject)
	access, err := jwtpkg.GenerateToken(subject, email, s.cfg.JWTIssuer, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	s.logger.Info("access token issued", "user_id", subject)
	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTokenTTL / time.Second),
	}, nil
}
