package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lengapp/leng-api/api/testhelpers"
	"github.com/lengapp/leng-api/config"
)

func newTestVerifier(t *testing.T) TokenVerifier {
	v, err := NewTokenVerifier(testhelpers.TestConfig(t).Identity)
	require.NoError(t, err)
	return v
}

func TestNewTokenVerifierRequiresKey(t *testing.T) {
	_, err := NewTokenVerifier(config.IdentityConfig{})
	assert.Error(t, err)

	_, err = NewTokenVerifier(config.IdentityConfig{PublicKey: "not a pem"})
	assert.Error(t, err)
}

func TestVerifyValidToken(t *testing.T) {
	v := newTestVerifier(t)
	id, err := v.Verify(testhelpers.SignToken(t, "uid-1", "Owner@Leng.app"))
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)
	assert.Equal(t, "owner@leng.app", id.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, time.Minute)
}

func TestVerifyRejects(t *testing.T) {
	v := newTestVerifier(t)
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "uid-1",
			"iss": "leng-test",
			"aud": "leng",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}
	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() }},
		{"no exp", func(c jwt.MapClaims) { delete(c, "exp") }},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "someone-else" }},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "other" }},
		{"empty subject", func(c jwt.MapClaims) { c["sub"] = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			_, err := v.Verify(testhelpers.SignTokenWithClaims(t, c))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsWrongSecretAndNone(t *testing.T) {
	v := newTestVerifier(t)
	claims := jwt.MapClaims{"sub": "uid-1", "iss": "leng-test", "aud": "leng", "exp": time.Now().Add(time.Hour).Unix()}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = v.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
