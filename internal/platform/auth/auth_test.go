package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSigningKey = "test-secret-key-for-hmac"

func signedToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte(testSigningKey)})

	tok := signedToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: "clinica_norte",
		Roles:    []string{"physician"},
	})

	var gotUser string
	var gotRoles []string
	handler := mw(func(c echo.Context) error {
		gotUser = UserIDFromContext(c.Request().Context())
		gotRoles = RolesFromContext(c.Request().Context())
		if tid, _ := c.Get("jwt_tenant_id").(string); tid != "clinica_norte" {
			t.Errorf("expected tenant claim on echo context, got %q", tid)
		}
		return okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "user-42" {
		t.Errorf("expected user-42, got %s", gotUser)
	}
	if len(gotRoles) != 1 || gotRoles[0] != "physician" {
		t.Errorf("unexpected roles: %v", gotRoles)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte(testSigningKey)})
	handler := mw(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	e := echo.New()
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte(testSigningKey)})
	handler := mw(okHandler)

	tok := signedToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole("physician")

	run := func(roles []string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), UserRolesKey, roles)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		return mw(okHandler)(e.NewContext(req, rec))
	}

	if err := run([]string{"physician"}); err != nil {
		t.Errorf("physician should pass: %v", err)
	}
	if err := run([]string{"admin"}); err != nil {
		t.Errorf("admin should pass any check: %v", err)
	}
	err := run([]string{"receptionist"})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("receptionist should be forbidden, got %v", err)
	}
	if err := run(nil); err == nil {
		t.Error("no roles should be forbidden")
	}
}

func TestDevAuthMiddleware_Defaults(t *testing.T) {
	e := echo.New()
	handler := DevAuthMiddleware()(func(c echo.Context) error {
		if uid := UserIDFromContext(c.Request().Context()); uid != "dev-user" {
			t.Errorf("expected dev-user, got %s", uid)
		}
		return okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
