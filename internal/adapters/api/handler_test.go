package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Richwell111/auth2/internal/core/domain"
	"github.com/Richwell111/auth2/internal/testutil"
)

const testToken = "internal-secret"

func newTestHandler(tenants *testutil.MockTenantContext, subs *testutil.MockSubscriptionAuthorizer, checks map[string]HealthCheck) *http.ServeMux {
	if tenants == nil {
		tenants = &testutil.MockTenantContext{}
	}
	if subs == nil {
		subs = &testutil.MockSubscriptionAuthorizer{}
	}
	gateway := NewGateway(nil, &testutil.MockSessionVerifier{}, &testutil.MockAuthForwarder{}, &testutil.MockBotClassifier{}, discard())
	h := NewAPIHandler(gateway, tenants, subs, checks)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, testToken)
	return mux
}

func internalPost(mux *http.ServeMux, path, body string, authorized bool) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", path, strings.NewReader(body))
	if authorized {
		r.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestSessionContext(t *testing.T) {
	tenants := &testutil.MockTenantContext{TenantID: "org-42", OK: true}
	mux := newTestHandler(tenants, nil, nil)

	w := internalPost(mux, "/internal/session-context", `{"userId":"u1"}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		ActiveOrganizationID *string `json:"activeOrganizationId"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.ActiveOrganizationID == nil || *resp.ActiveOrganizationID != "org-42" {
		t.Errorf("expected org-42, got %v", resp.ActiveOrganizationID)
	}
}

func TestSessionContext_NoMembership(t *testing.T) {
	mux := newTestHandler(&testutil.MockTenantContext{}, nil, nil)

	w := internalPost(mux, "/internal/session-context", `{"userId":"u1"}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("session creation must succeed without a tenant, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"activeOrganizationId":null`) {
		t.Errorf("expected null tenant, got %q", w.Body.String())
	}
}

func TestSessionContext_BadRequest(t *testing.T) {
	mux := newTestHandler(nil, nil, nil)

	for _, body := range []string{``, `{}`, `{"userId":""}`, `not json`} {
		if w := internalPost(mux, "/internal/session-context", body, true); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestAuthorizeSubscription(t *testing.T) {
	subs := &testutil.MockSubscriptionAuthorizer{Allowed: true}
	mux := newTestHandler(nil, subs, nil)

	w := internalPost(mux, "/internal/subscription/authorize",
		`{"userId":"u1","organizationId":"org-a","action":"upgrade-subscription"}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"authorized":true`) {
		t.Errorf("expected authorized, got %q", w.Body.String())
	}
	if subs.LastAction != domain.ActionUpgradeSubscription {
		t.Errorf("action not parsed: %s", subs.LastAction)
	}
}

func TestAuthorizeSubscription_UnknownAction(t *testing.T) {
	mux := newTestHandler(nil, nil, nil)

	w := internalPost(mux, "/internal/subscription/authorize",
		`{"userId":"u1","organizationId":"org-a","action":"delete-everything"}`, true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown action should be 400, got %d", w.Code)
	}
}

func TestInternalEndpointsRequireToken(t *testing.T) {
	mux := newTestHandler(nil, nil, nil)

	for _, path := range []string{"/internal/session-context", "/internal/subscription/authorize"} {
		if w := internalPost(mux, path, `{}`, false); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: expected 401, got %d", path, w.Code)
		}

		r := httptest.NewRequest("POST", path, strings.NewReader(`{}`))
		r.Header.Set("Authorization", "Bearer wrong-token")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s with wrong token: expected 401, got %d", path, w.Code)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	checks := map[string]HealthCheck{
		"rule_store": func(context.Context) error { return nil },
		"memberships": func(context.Context) error {
			return errors.New("connection refused")
		},
	}
	mux := newTestHandler(nil, nil, checks)

	r := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when degraded, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "DEGRADED") {
		t.Errorf("expected DEGRADED status, got %q", w.Body.String())
	}
}

func TestHealthCheck_AllUp(t *testing.T) {
	checks := map[string]HealthCheck{
		"rule_store": func(context.Context) error { return nil },
	}
	mux := newTestHandler(nil, nil, checks)

	r := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
