package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken("user_id", "user@example.com", "peoplemover", "secret", time.Minute)
	require.NoError(t, err)

	claims, err := Parse(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "USER_ID", claims.UserID())
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "peoplemover", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user", "", "peoplemover", "secret", time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "other")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := GenerateToken("user", "", "peoplemover", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "secret")
	assert.Error(t, err)
}

func TestIdentityReadsUnverifiedClaims(t *testing.T) {
	token, err := GenerateToken("jdoe", "jdoe@ford.com", "idp", "someone-elses-secret", time.Minute)
	require.NoError(t, err)

	subject, email, err := Identity(token)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", subject)
	assert.Equal(t, "jdoe@ford.com", email)

	_, _, err = Identity("not-a-jwt")
	assert.Error(t, err)
}
