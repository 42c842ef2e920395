package testhelpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lengapp/leng-api/config"
)

// Secret is the HS256 secret used by test tokens
const Secret = "test-identity-secret"

// AdminKey is the plain admin key whose hash TestConfig carries
const AdminKey = "let-me-in"

// TestConfig returns a config suitable for handler and middleware tests
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(AdminKey), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		Env:          "test",
		Port:         "0",
		DatabaseName: "test",
		Identity:     config.IdentityConfig{JWTSecret: Secret, Issuer: "leng-test", Audience: "leng"},
		AdminEmails:  config.ParseEmailList("admin@leng.app"),
		AdminKeyHash: string(hash),
		Cloudinary:   config.CloudinaryConfig{Folder: "leng"},
		Stripe:       config.StripeConfig{Currency: "try"},
	}
}

// SignToken returns an ID token for uid signed with Secret
func SignToken(t *testing.T, uid, email string) string {
	t.Helper()
	return SignTokenWithClaims(t, jwt.MapClaims{
		"sub":   uid,
		"email": email,
		"iss":   "leng-test",
		"aud":   "leng",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

// SignTokenWithClaims signs arbitrary claims with Secret
func SignTokenWithClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	require.NoError(t, err)
	return tok
}
