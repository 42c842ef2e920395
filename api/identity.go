package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lengapp/leng-api/config"
)

// Identity is the verified caller attached to a request
type Identity struct {
	UID   string
	Email string
	Admin bool
	// ExpiresAt is the token expiry. It is set by Verify only.
	ExpiresAt time.Time
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached to ctx, if any
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UID == "" {
		return Identity{}, false
	}
	return id, true
}

// IdentityClaims are the ID token claims the API relies on
type IdentityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier checks identity-provider ID tokens
type TokenVerifier interface {
	Verify(raw string) (Identity, error)
}

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid token")

type jwtVerifier struct {
	secret []byte
	pub    interface{}
	parser *jwt.Parser
}

// NewTokenVerifier builds a verifier from the identity config. At least one
// of the shared secret (HS256) or the PEM public key (RS256) must be set.
func NewTokenVerifier(conf config.IdentityConfig) (TokenVerifier, error) {
	v := &jwtVerifier{}
	methods := []string{}
	if conf.JWTSecret != "" {
		v.secret = []byte(conf.JWTSecret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if conf.PublicKey != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(conf.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("parse identity public key: %w", err)
		}
		v.pub = key
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, errors.New("identity verifier needs IDENTITY_JWT_SECRET or IDENTITY_PUBLIC_KEY")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired()}
	if conf.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(conf.Issuer))
	}
	if conf.Audience != "" {
		opts = append(opts, jwt.WithAudience(conf.Audience))
	}
	v.parser = jwt.NewParser(opts...)
	return v, nil
}

func (v *jwtVerifier) Verify(raw string) (Identity, error) {
	claims := &IdentityClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, v.key)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	id := Identity{UID: claims.Subject, Email: strings.ToLower(claims.Email)}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func (v *jwtVerifier) key(t *jwt.Token) (interface{}, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret == nil {
			return nil, errors.New("hmac tokens not accepted")
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.pub == nil {
			return nil, errors.New("rsa tokens not accepted")
		}
		return v.pub, nil
	}
	return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
}
