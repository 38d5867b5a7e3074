package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Breaking News", "breaking-news"},
		{"Élection présidentielle", "election-presidentielle"},
		{"  Spaces   everywhere  ", "spaces-everywhere"},
		{"C++ & Go: a comparison!", "c-go-a-comparison"},
		{"already-a-slug", "already-a-slug"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GenerateSlug(tc.in), "input %q", tc.in)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("a@x.com", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("a@x.com", -time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "test-secret")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("a@x.com", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 42, ParseIntDefault("42", 7))
	assert.Equal(t, 7, ParseIntDefault("not a number", 7))
}

func TestTokenTTLDefaultsToSevenDays(t *testing.T) {
	t.Setenv("TOKEN_TTL_DAYS", "")
	assert.Equal(t, 7*24*time.Hour, TokenTTL())

	t.Setenv("TOKEN_TTL_DAYS", "2")
	assert.Equal(t, 2*24*time.Hour, TokenTTL())
}
