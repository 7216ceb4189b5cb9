package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
)

type adjustPayload struct {
	Reason string `json:"reason" validate:"required,oneof=RESTOCK SALE"`
	Delta  *int   `json:"delta_stock" validate:"required"`
}

func TestDecodeJSONBodyValidation(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"THEFT","delta_stock":1}`))
	var payload adjustPayload
	err := DecodeJSONBody(req, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["reason"] != "must be one of RESTOCK SALE" {
		t.Fatalf("unexpected reason detail %q", details["reason"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"SALE","delta_stock":1,"extra":true}`))
	var payload adjustPayload
	if err := DecodeJSONBody(req, &payload); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&dry_run=yes&product_id=nope", nil)
	if _, err := ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
		t.Fatalf("expected out of range limit to fail")
	}
	if _, err := ParseQueryBool(req, "dry_run", false); err == nil {
		t.Fatalf("expected invalid bool to fail")
	}
	if _, err := ParseQueryUUID(req, "product_id"); err == nil {
		t.Fatalf("expected invalid uuid to fail")
	}

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	if v, err := ParseQueryBool(empty, "dry_run", true); err != nil || !v {
		t.Fatalf("expected default true, got %v %v", v, err)
	}
	if id, err := ParseQueryUUID(empty, "product_id"); err != nil || id != nil {
		t.Fatalf("expected nil uuid, got %v %v", id, err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	want := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("variantId", want.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "variantId")
	if err != nil || got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
	if _, err := ParseUUIDParam(req, "missing"); err == nil {
		t.Fatalf("expected missing param to fail")
	}
}

func TestSanitizeString(t *testing.T) {
	got, err := SanitizeString("  hello  ", "sku", 5)
	if err != nil || got != "hello" {
		t.Fatalf("unexpected sanitized value %q (%v)", got, err)
	}

	if _, err := SanitizeString("  hello world  ", "sku", 5); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected overlong value to be rejected, got %v", err)
	}

	// five runes, twelve bytes
	multibyte := "ÄÖÜ日本"
	got, err = SanitizeString(multibyte, "sku", 5)
	if err != nil || got != multibyte {
		t.Fatalf("expected multibyte value kept intact, got %q (%v)", got, err)
	}
	if _, err := SanitizeString(multibyte+"x", "sku", 5); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected six-rune value to be rejected, got %v", err)
	}
}
