package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/Richwell111/auth2/internal/core/domain"
	"github.com/Richwell111/auth2/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck probes one backing component.
type HealthCheck func(ctx context.Context) error

// APIHandler wires the gateway and the collaborator-facing hooks onto the
// HTTP surface.
type APIHandler struct {
	gateway *Gateway
	tenants ports.TenantContextService
	subs    ports.SubscriptionAuthorizer
	checks  map[string]HealthCheck
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(gateway *Gateway, tenants ports.TenantContextService, subs ports.SubscriptionAuthorizer, checks map[string]HealthCheck) *APIHandler {
	return &APIHandler{gateway: gateway, tenants: tenants, subs: subs, checks: checks}
}

// RegisterRoutes registers the API routes with the provided ServeMux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux, internalToken string) {
	// Public routes
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /metrics", h.Metrics)

	// Gated auth surface
	mux.HandleFunc("/api/auth/", h.gateway.Handle)

	// Internal hooks called by the authentication collaborator
	internal := InternalAuthMiddleware(internalToken)
	mux.Handle("POST /internal/session-context", internal(http.HandlerFunc(h.SessionContext)))
	mux.Handle("POST /internal/subscription/authorize", internal(http.HandlerFunc(h.AuthorizeSubscription)))
}

// Metrics handles Prometheus metrics scraping requests.
func (h *APIHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// HealthCheck handles health check requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)

	for name, check := range h.checks {
		if checkErr := check(r.Context()); checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	resp := map[string]interface{}{
		"status":  status,
		"details": details,
	}

	w.Header().Set("Content-Type", "application/json")
	if status == "DEGRADED" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("failed to encode health check response: %v", err)
	}
}

// SessionContext is called by the collaborator before persisting a new
// session: it returns the tenant context the session is created with.
func (h *APIHandler) SessionContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	var resp struct {
		ActiveOrganizationID *string `json:"activeOrganizationId"`
	}
	if tenantID, ok := h.tenants.ResolveActiveTenant(r.Context(), req.UserID); ok {
		resp.ActiveOrganizationID = &tenantID
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("failed to encode session context response: %v", err)
	}
}

// AuthorizeSubscription is called by the collaborator's billing integration
// before executing a subscription action on behalf of a tenant.
func (h *APIHandler) AuthorizeSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID         string `json:"userId"`
		OrganizationID string `json:"organizationId"`
		Action         string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.OrganizationID == "" {
		http.Error(w, "missing or invalid request fields", http.StatusBadRequest)
		return
	}

	action, ok := domain.ParseBillingAction(req.Action)
	if !ok {
		http.Error(w, "unknown billing action", http.StatusBadRequest)
		return
	}

	resp := map[string]bool{
		"authorized": h.subs.Authorize(r.Context(), req.UserID, req.OrganizationID, action),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("failed to encode authorization response: %v", err)
	}
}
