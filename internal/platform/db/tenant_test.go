package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractTenantID_FromHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "clinica_norte")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if tid := extractTenantID(c, "default"); tid != "clinica_norte" {
		t.Errorf("expected clinica_norte, got %s", tid)
	}
}

func TestExtractTenantID_FromQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?tenant_id=clinica_sur", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if tid := extractTenantID(c, "default"); tid != "clinica_sur" {
		t.Errorf("expected clinica_sur, got %s", tid)
	}
}

func TestExtractTenantID_JWTClaimWins(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?tenant_id=from_query", nil)
	req.Header.Set("X-Tenant-ID", "from_header")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("jwt_tenant_id", "from_token")

	if tid := extractTenantID(c, "default"); tid != "from_token" {
		t.Errorf("expected from_token, got %s", tid)
	}
}

func TestExtractTenantID_Default(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if tid := extractTenantID(c, "default"); tid != "default" {
		t.Errorf("expected default, got %s", tid)
	}
}

func TestTenantIDPattern(t *testing.T) {
	valid := []string{"clinica_norte", "t1", "ACME_2024"}
	invalid := []string{"", "drop;table", "a-b", "tenant id"}

	for _, v := range valid {
		if !tenantIDPattern.MatchString(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	for _, v := range invalid {
		if tenantIDPattern.MatchString(v) {
			t.Errorf("expected %q to be rejected", v)
		}
	}
}

func TestTenantFromContext_Missing(t *testing.T) {
	if tid := TenantFromContext(context.Background()); tid != "" {
		t.Errorf("expected empty tenant, got %s", tid)
	}
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Error("expected nil connection on bare context")
	}
}
