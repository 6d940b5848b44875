package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Richwell111/auth2/internal/core/domain"
	"github.com/Richwell111/auth2/internal/core/ports"
	"github.com/Richwell111/auth2/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// maxBodyBytes bounds how much of an auth payload the gateway will buffer.
const maxBodyBytes = 1 << 20

// Gateway dispatches inbound authentication requests: it classifies the
// route, resolves the acting identity, runs admission, and either maps the
// denial to a response or forwards the request to the authentication
// collaborator untouched.
type Gateway struct {
	admission ports.AdmissionService
	sessions  ports.SessionVerifier
	upstream  ports.AuthForwarder
	bots      ports.BotClassifier
	logger    *slog.Logger
}

func NewGateway(admission ports.AdmissionService, sessions ports.SessionVerifier, upstream ports.AuthForwarder, bots ports.BotClassifier, logger *slog.Logger) *Gateway {
	return &Gateway{admission: admission, sessions: sessions, upstream: upstream, bots: bots, logger: logger}
}

// Handle serves every request under the auth path space. Only POST is
// gated; other methods pass straight through to the collaborator.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	// Buffer the body once. Parsing strategies consume the stream, and the
	// collaborator needs the original bytes, so this single copy is what
	// both classification and forwarding read from. Oversized bodies are
	// rejected outright rather than forwarded truncated.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			g.logger.Warn("request body too large", "path", r.URL.Path, "limit", maxErr.Limit)
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		g.logger.Warn("failed to read request body", "path", r.URL.Path, "error", err)
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return
	}

	if r.Method != http.MethodPost {
		g.forward(w, r, body, domain.RouteGeneric)
		return
	}

	route, email := classifyRoute(r.URL.Path, body)
	key := ResolveIdentity(r, g.sessions)

	decision := g.admission.Admit(r.Context(), domain.AdmissionInput{
		Route: route,
		Key:   key,
		Email: email,
		Bot:   g.bots.Classify(r),
	})

	if !decision.Allowed {
		metrics.AdmissionDecisions.WithLabelValues(string(route), "deny", string(decision.Reason)).Inc()
		g.logger.Info("request denied",
			"route", string(route), "identity", string(key),
			"rule", decision.Rule, "reason", string(decision.Reason))
		writeDenial(w, decision)
		return
	}

	metrics.AdmissionDecisions.WithLabelValues(string(route), "allow", string(domain.ReasonNone)).Inc()
	g.forward(w, r, body, route)
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, body []byte, route domain.RouteClass) {
	timer := prometheus.NewTimer(metrics.ForwardDuration.WithLabelValues(string(route)))
	defer timer.ObserveDuration()

	if err := g.upstream.Forward(w, r, body); err != nil {
		g.logger.Error("upstream forward failed", "path", r.URL.Path, "error", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
}

// classifyRoute derives the route class from the target path and payload.
// A malformed payload never fails classification: the request keeps the
// path's route class and the collaborator applies its own validation.
func classifyRoute(path string, body []byte) (domain.RouteClass, string) {
	signup := strings.HasSuffix(path, "/sign-up")

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		if signup {
			return domain.RouteSignupWithoutEmail, ""
		}
		return domain.RouteGeneric, ""
	}

	if signup {
		if email, ok := payload["email"].(string); ok && email != "" {
			return domain.RouteSignupWithEmail, email
		}
		return domain.RouteSignupWithoutEmail, ""
	}
	return domain.RouteGeneric, ""
}

// Denial responses: rate limiting yields an empty 429, email rejection a
// 400 with a human-readable message, everything else an empty 403.
func writeDenial(w http.ResponseWriter, d domain.PolicyDecision) {
	switch d.Reason {
	case domain.ReasonRateLimit:
		w.WriteHeader(http.StatusTooManyRequests)
	case domain.ReasonEmailInvalid, domain.ReasonEmailDisposable, domain.ReasonEmailNoMX:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		resp := map[string]string{"message": emailMessage(d.Reason)}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("failed to encode denial response: %v", err)
		}
	default:
		w.WriteHeader(http.StatusForbidden)
	}
}

func emailMessage(reason domain.ReasonKind) string {
	switch reason {
	case domain.ReasonEmailInvalid:
		return "Email address format is invalid."
	case domain.ReasonEmailDisposable:
		return "Disposable email addresses are not allowed."
	case domain.ReasonEmailNoMX:
		return "Email domain is not valid."
	}
	return "Invalid email."
}
