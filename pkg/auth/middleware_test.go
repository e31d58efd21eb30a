package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillcms/quill/internal/config"
	"github.com/quillcms/quill/pkg/apperror"
)

func newTestMiddleware(authCfg config.AuthConfig) *Middleware {
	return &Middleware{
		cfg: &authCfg,
		log: slog.New(slog.DiscardHandler),
	}
}

func invoke(t *testing.T, m *Middleware, authHeader string) (*Actor, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var actor *Actor
	handler := m.RequireActor()(func(c echo.Context) error {
		actor = GetActor(c)
		return nil
	})
	err := handler(c)
	return actor, err
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestMissingCredentials(t *testing.T) {
	m := newTestMiddleware(config.AuthConfig{APIKey: "svc-key"})

	_, err := invoke(t, m, "")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = invoke(t, m, "Basic abc")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestAPIKeyActor(t *testing.T) {
	m := newTestMiddleware(config.AuthConfig{APIKey: "svc-key"})

	actor, err := invoke(t, m, "Bearer svc-key")
	require.NoError(t, err)
	require.NotNil(t, actor)
	assert.Equal(t, ServiceActorID, actor.ID)
	assert.Equal(t, "service", actor.Role)
}

func TestJWTActor(t *testing.T) {
	m := newTestMiddleware(config.AuthConfig{JWTSecret: "secret"})

	token := signToken(t, "secret", jwt.MapClaims{
		"sub":  "user-42",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	actor, err := invoke(t, m, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", actor.ID)
	assert.Equal(t, "admin", actor.Role)
}

func TestJWTDefaultRole(t *testing.T) {
	m := newTestMiddleware(config.AuthConfig{JWTSecret: "secret"})

	token := signToken(t, "secret", jwt.MapClaims{
		"sub": "user-9",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	actor, err := invoke(t, m, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "editor", actor.Role)
}

func TestJWTRejections(t *testing.T) {
	m := newTestMiddleware(config.AuthConfig{JWTSecret: "secret"})

	tests := []struct {
		name  string
		token string
	}{
		{"garbage token", "not-a-jwt"},
		{"wrong secret", signToken(t, "other", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()})},
		{"expired", signToken(t, "secret", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no subject", signToken(t, "secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoke(t, m, "Bearer "+tt.token)
			assert.True(t, errors.Is(err, apperror.ErrInvalidToken))
		})
	}
}

func TestDisabledModeTrustsHeader(t *testing.T) {
	m := newTestMiddleware(config.AuthConfig{Disabled: true})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-ID", "dev-user")
	c := e.NewContext(req, httptest.NewRecorder())

	var actor *Actor
	handler := m.RequireActor()(func(c echo.Context) error {
		actor = GetActor(c)
		return nil
	})
	require.NoError(t, handler(c))
	assert.Equal(t, "dev-user", actor.ID)
}

func TestGetActorWithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, GetActor(c))
}
