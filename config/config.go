package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the project config values. It is read once at start-up and
// handed to every component; nothing rereads the environment per request.
type Config struct {
	Env          string
	Port         string
	BaseURL      string
	DatabaseURL  string
	DatabaseName string

	Identity IdentityConfig

	// AdminEmails is the lower-cased admin allow-list
	AdminEmails  mapset.Set[string]
	AdminKeyHash string

	Cloudinary CloudinaryConfig
	Stripe     StripeConfig
	SendGrid   SendGridConfig
	RedisURL   string

	RequestTimeout time.Duration
	QueryTimeout   time.Duration
}

// IdentityConfig configures verification of identity-provider ID tokens
type IdentityConfig struct {
	JWTSecret string
	PublicKey string
	Issuer    string
	Audience  string
}

// CloudinaryConfig configures the object store used for uploads
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether uploads are configured
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// StripeConfig configures checkout sessions
type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
}

// Enabled reports whether payments are configured
func (c StripeConfig) Enabled() bool {
	return c.SecretKey != ""
}

// SendGridConfig configures outgoing email
type SendGridConfig struct {
	APIKey string
	From   string
}

// Enabled reports whether email is configured
func (c SendGridConfig) Enabled() bool {
	return c.APIKey != "" && c.From != ""
}

// New sets up all config related services from the current environment
func New() *Config {
	return Load("")
}

// Load reads an optional env file and then the environment, and installs the
// global zap logger
func Load(envFile string) *Config {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	env := getenv("ENV", "local")
	logger, err := setLogger(env)
	if err == nil {
		_ = zap.ReplaceGlobals(logger)
	}

	return &Config{
		Env:          env,
		Port:         getenv("PORT", "3001"),
		BaseURL:      os.Getenv("BASE_URL"),
		DatabaseURL:  os.Getenv("DB_URI"),
		DatabaseName: getenv("DB_NAME", "leng"),
		Identity: IdentityConfig{
			JWTSecret: os.Getenv("IDENTITY_JWT_SECRET"),
			PublicKey: os.Getenv("IDENTITY_PUBLIC_KEY"),
			Issuer:    os.Getenv("IDENTITY_ISSUER"),
			Audience:  os.Getenv("IDENTITY_AUDIENCE"),
		},
		AdminEmails:  ParseEmailList(os.Getenv("ADMIN_EMAILS")),
		AdminKeyHash: os.Getenv("ADMIN_KEY_HASH"),
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getenv("UPLOAD_FOLDER", "leng"),
		},
		Stripe: StripeConfig{
			SecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
			SuccessURL: os.Getenv("STRIPE_SUCCESS_URL"),
			CancelURL:  os.Getenv("STRIPE_CANCEL_URL"),
			Currency:   getenv("CURRENCY", "try"),
		},
		SendGrid: SendGridConfig{
			APIKey: os.Getenv("SENDGRID_API_KEY"),
			From:   os.Getenv("EMAIL_FROM"),
		},
		RedisURL:       os.Getenv("REDIS_URL"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		QueryTimeout:   getDuration("QUERY_TIMEOUT", 10*time.Second),
	}
}

// ParseEmailList splits a comma separated list into a lower-cased set
func ParseEmailList(raw string) mapset.Set[string] {
	set := mapset.NewSet[string]()
	for _, e := range strings.Split(raw, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set.Add(e)
		}
	}
	return set
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		zap.S().Warnw("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. The err is only logged, never sent to the client.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	if err != nil {
		zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	} else {
		zap.S().Debugw(message, "status", httpStatusCode)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
