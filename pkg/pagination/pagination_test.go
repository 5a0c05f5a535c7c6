package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/expedients"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := paramsFor(t, "?limit=50&offset=10")
	if p.Limit != 50 || p.Offset != 10 {
		t.Errorf("expected 50/10, got %+v", p)
	}
}

func TestFromContext_ClampsLimit(t *testing.T) {
	p := paramsFor(t, "?limit=5000")
	if p.Limit != MaxLimit {
		t.Errorf("expected max limit %d, got %d", MaxLimit, p.Limit)
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	r := NewResponse(nil, 45, 20, 20)
	if !r.HasMore {
		t.Error("expected has_more at offset 20 of 45")
	}
	r = NewResponse(nil, 45, 20, 40)
	if r.HasMore {
		t.Error("expected no more at offset 40 of 45")
	}
}

func TestOffsets(t *testing.T) {
	p := Params{Limit: 20, Offset: 10}
	if p.NextOffset() != 30 {
		t.Errorf("expected 30, got %d", p.NextOffset())
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("expected 0, got %d", p.PreviousOffset())
	}
}
