package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lengapp/leng-api/config"
)

// TokenCacheTTL is how long a verified token is served from the cache
const TokenCacheTTL = 5 * time.Minute

// expiryExtension holds the token expiry, in unix seconds, on cached auth.Info
const expiryExtension = "exp"

// AdminKeyHeader carries the admin shared secret
const AdminKeyHeader = "X-Admin-Key"

// Gate authenticates requests with go-guardian. Bearer tokens are verified
// once and then served from a FIFO cache.
type Gate struct {
	authenticator auth.Authenticator
	verifier      TokenVerifier
	adminEmails   mapset.Set[string]
	adminKeyHash  []byte
	cache         *store.FIFO
	now           func() time.Time
}

// NewGate sets up the go-guardian authenticator around verifier
func NewGate(ctx context.Context, conf *config.Config, verifier TokenVerifier) *Gate {
	g := &Gate{
		verifier:    verifier,
		adminEmails: conf.AdminEmails,
		now:         time.Now,
	}
	if g.adminEmails == nil {
		g.adminEmails = mapset.NewSet[string]()
	}
	if conf.AdminKeyHash != "" {
		g.adminKeyHash = []byte(conf.AdminKeyHash)
	}

	g.authenticator = auth.New()
	g.cache = store.NewFIFO(ctx, TokenCacheTTL)
	tokenStrategy := bearer.New(g.validateToken, g.cache)
	g.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
	return g
}

func (g *Gate) validateToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	id, err := g.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	ext := map[string][]string{}
	if !id.ExpiresAt.IsZero() {
		ext[expiryExtension] = []string{strconv.FormatInt(id.ExpiresAt.Unix(), 10)}
	}
	return auth.NewDefaultUser(id.Email, id.UID, nil, ext), nil
}

// identify runs the bearer strategy and converts the result into an Identity.
// A cached token past its expiry is evicted and rejected.
func (g *Gate) identify(r *http.Request) (Identity, error) {
	info, err := g.authenticator.Authenticate(r)
	if err != nil {
		return Identity{}, err
	}
	if exp := info.Extensions()[expiryExtension]; len(exp) > 0 {
		unix, err := strconv.ParseInt(exp[0], 10, 64)
		if err != nil || !g.now().Before(time.Unix(unix, 0)) {
			if token, terr := bearer.Token(r); terr == nil {
				_ = g.cache.Delete(token, r)
			}
			return Identity{}, ErrInvalidToken
		}
	}
	return Identity{UID: info.ID(), Email: info.UserName()}, nil
}

// Authenticate rejects requests without a valid bearer token
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.identify(r)
		if err != nil {
			zap.S().Debugw("unauthorized", "url", r.URL.Path, "error", err)
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// OptionalAuthenticate attaches the caller identity when a valid token is
// present and lets anonymous requests through untouched
func (g *Gate) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			if id, err := g.identify(r); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets through requests carrying the admin key, or a bearer
// token whose email is on the admin allow-list
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(AdminKeyHeader); key != "" && g.adminKeyHash != nil {
			if bcrypt.CompareHashAndPassword(g.adminKeyHash, []byte(key)) == nil {
				id := Identity{UID: "admin-key", Admin: true}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}
			zap.S().Warnw("admin key mismatch", "url", r.URL.Path)
		}

		id, err := g.identify(r)
		if err != nil {
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
			return
		}
		if id.Email == "" || !g.adminEmails.Contains(strings.ToLower(id.Email)) {
			zap.S().Warnw("admin access denied", "uid", id.UID, "url", r.URL.Path)
			config.ErrorStatus("admin access required", http.StatusForbidden, w, nil)
			return
		}
		id.Admin = true
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
