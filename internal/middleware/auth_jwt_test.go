package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return s
}

func validClaims(userID int64, role string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}
}

func runAuth(t *testing.T, token string, useCookie bool) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if token != "" {
		if useCookie {
			req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: token})
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := middleware.AuthJWT(config.Config{JWTSecret: testSecret})(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, h(c))
	if captured == nil {
		captured = c
	}
	return rec, captured
}

func TestAuthJWT_MissingToken(t *testing.T) {
	rec, _ := runAuth(t, "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ValidBearerToken(t *testing.T) {
	token := signToken(t, testSecret, validClaims(7, "USER"))

	rec, c := runAuth(t, token, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(middleware.CtxUserIDKey))
	assert.Equal(t, "USER", c.Get(middleware.CtxUserRoleKey))
}

func TestAuthJWT_CookieFallback(t *testing.T) {
	token := signToken(t, testSecret, validClaims(7, "USER"))

	rec, c := runAuth(t, token, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(middleware.CtxUserIDKey))
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", validClaims(7, "USER"))

	rec, _ := runAuth(t, token, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	claims := validClaims(7, "USER")
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := signToken(t, testSecret, claims)

	rec, _ := runAuth(t, token, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_MissingRole(t *testing.T) {
	now := time.Now()
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": int64(7),
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})

	rec, _ := runAuth(t, token, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard_AllowsAdminOnly(t *testing.T) {
	e := echo.New()

	run := func(role interface{}) int {
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(middleware.CtxUserRoleKey, role)
		}

		h := middleware.AdminRoleGuard()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, h(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run("ADMIN"))
	assert.Equal(t, http.StatusForbidden, run("USER"))
	assert.Equal(t, http.StatusUnauthorized, run(nil))
}
