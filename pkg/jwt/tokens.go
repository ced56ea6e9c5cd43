package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims defines the JWT payload accepted by the API.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwtlib.RegisteredClaims
}

// UserID returns the normalized subject of the token.
func (c *Claims) UserID() string {
	return strings.ToUpper(strings.TrimSpace(c.Subject))
}

// GenerateToken issues a signed JWT for the subject.
func GenerateToken(subject, email, issuer, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates and extracts claims from token.
func Parse(token, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}), jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token subject missing")
	}
	return claims, nil
}

// Identity reads subject and email from a token without checking its
// signature. Only use it on tokens received directly from the identity provider.
func Identity(token string) (subject, email string, err error) {
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return "", "", err
	}
	subject, _ = claims["sub"].(string)
	if upn, ok := claims["upn"].(string); ok && subject == "" {
		subject = upn
	}
	email, _ = claims["email"].(string)
	if strings.TrimSpace(subject) == "" {
		return "", "", errors.New("token subject missing")
	}
	return subject, email, nil
}
