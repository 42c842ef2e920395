package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	t.Setenv("DB_NAME", "test")
	t.Setenv("ADMIN_EMAILS", " Admin@Leng.app ,ops@leng.app,, ")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "test", conf.DatabaseName)
	assert.Equal(t, "3001", conf.Port)
	assert.Equal(t, 3*time.Second, conf.RequestTimeout)
	assert.Equal(t, 10*time.Second, conf.QueryTimeout)
	assert.True(t, conf.AdminEmails.Contains("admin@leng.app"))
	assert.True(t, conf.AdminEmails.Contains("ops@leng.app"))
	assert.Equal(t, 2, conf.AdminEmails.Cardinality())
}

func TestNewInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("QUERY_TIMEOUT", "soon")
	conf := New()
	assert.Equal(t, 10*time.Second, conf.QueryTimeout)
}

func TestIntegrationsDisabledByDefault(t *testing.T) {
	os.Unsetenv("STRIPE_SECRET_KEY")
	os.Unsetenv("CLOUDINARY_CLOUD_NAME")
	os.Unsetenv("SENDGRID_API_KEY")
	conf := New()
	assert.False(t, conf.Stripe.Enabled())
	assert.False(t, conf.Cloudinary.Enabled())
	assert.False(t, conf.SendGrid.Enabled())
	assert.Equal(t, "try", conf.Stripe.Currency)
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error": "error it borked"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "bad request")
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))
	assert.True(t, l.Core().Enabled(0))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
}

func TestParsePlanCatalog(t *testing.T) {
	plans, err := ParsePlanCatalog([]byte(`
plans:
  - id: free
    name: Free
    active: true
    limits: {maxPolls: 3, maxQuestions: 3, maxLinks: 10}
  - id: pro
    name: Pro
    priceCents: 9900
    currency: try
    durationDays: 365
    features: [analytics, vitrin]
    limits: {maxPolls: 50, maxQuestions: 50, maxLinks: 500}
    active: true
`))
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, 30, plans[0].DurationDays)
	assert.Equal(t, []string{}, plans[0].Features)
	assert.Equal(t, 50, plans[1].Limits.MaxPolls)
	assert.Equal(t, int64(9900), plans[1].PriceCents)
}

func TestParsePlanCatalogRejectsDuplicates(t *testing.T) {
	_, err := ParsePlanCatalog([]byte("plans:\n  - id: pro\n  - id: pro\n"))
	assert.EqualError(t, err, `duplicate plan id "pro"`)

	_, err = ParsePlanCatalog([]byte("plans:\n  - name: nameless\n"))
	assert.Error(t, err)
}
