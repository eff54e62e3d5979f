package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/app"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/config"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/respond"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/logger"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/mocks"
)

// TestSuite runs the whole service in process: sqlite in memory for the
// principal and policy tables, miniredis for rate limits.
type TestSuite struct {
	Container *app.Container
	Router    *gin.Engine
	Redis     *miniredis.Miniredis
	Mail      *mocks.MockNotificationService
	Identity  *mocks.MockIdentityVerifier
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(redisAddr string) *config.Config {
	return &config.Config{
		AppName:              "59minutes-auth-e2e",
		DBDriver:             "sqlite",
		DSN:                  ":memory:",
		RedisAddr:            redisAddr,
		JWTSecret:            "e2e-secret-not-for-production",
		JWTIssuer:            "59minutes",
		TokenTTL:             24 * time.Hour,
		BcryptCost:           config.MinBcryptCost,
		HideAccountExistence: true,
		ResetCodeTTL:         15 * time.Minute,
		ResetMaxAttempts:     5,
		ResetBlockDuration:   30 * time.Minute,
		NotificationTimeout:  time.Second,
		NATSSubjectPrefix:    "auth.events",
		RateLimitWindow:      15 * time.Minute,
		RateLimitMax:         100,
		ResetRateLimitMax:    100,
		OwnershipRules: []config.OwnershipRule{
			{Method: http.MethodDelete, Path: "/api/auth/customers/:id", Source: "path", ParamName: "id"},
		},
	}
}

// NewTestSuite builds a fresh service. configure may adjust the config before wiring.
func NewTestSuite(t *testing.T, configure ...func(*config.Config)) *TestSuite {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := testConfig(mr.Addr())
	for _, fn := range configure {
		fn(cfg)
	}

	mail := mocks.NewMockNotificationService()
	identity := mocks.NewMockIdentityVerifier()
	c, err := app.NewContainer(context.Background(), cfg, logger.Discard(),
		app.WithNotificationService(mail),
		app.WithIdentityVerifier(identity),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return &TestSuite{
		Container: c,
		Router:    c.Router(),
		Redis:     mr,
		Mail:      mail,
		Identity:  identity,
	}
}

// Do sends a JSON request through the router and decodes the envelope.
func (s *TestSuite) Do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, respond.Envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	var env respond.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// PrincipalView is the client-side shape of a principal payload.
type PrincipalView struct {
	ID       string          `json:"id"`
	Role     domain.Role     `json:"role"`
	Email    string          `json:"email"`
	IsActive bool            `json:"isActive"`
	Profile  json.RawMessage `json:"profile"`
}

// Data re-decodes the envelope payload into out.
func Data(t *testing.T, env respond.Envelope, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

var resetCodePattern = regexp.MustCompile(`code is (\d{6})`)

// LastResetCode extracts the code from the most recent reset email sent to email.
func (s *TestSuite) LastResetCode(t *testing.T, email string) string {
	t.Helper()
	for i := len(s.Mail.Emails) - 1; i >= 0; i-- {
		msg := s.Mail.Emails[i]
		if len(msg.To) == 0 || msg.To[0] != email {
			continue
		}
		if m := resetCodePattern.FindStringSubmatch(msg.Text); m != nil {
			return m[1]
		}
	}
	t.Fatalf("no reset code sent to %s", email)
	return ""
}

var emailSeq atomic.Int64

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s.%d@example.com", prefix, emailSeq.Add(1))
}
