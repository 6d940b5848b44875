package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/Richwell111/auth2/internal/core/domain"
)

// RuleStateStore backs rate windows and bot-classification flags, keyed by
// identity key plus rule-configuration name. Increment must be atomic per
// key: start a fresh window with count 1 when none is open, otherwise
// increment the open window and report the new count.
type RuleStateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	FlagBot(ctx context.Context, key string, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// MembershipRepository is the tenant-membership store. Listing is ordered
// by join time descending; Get returns domain.ErrNoMembership when the
// (subject, tenant) pair has no row.
type MembershipRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]domain.TenantMembership, error)
	Get(ctx context.Context, subjectID, tenantID string) (*domain.TenantMembership, error)
	Create(ctx context.Context, m *domain.TenantMembership) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// SessionVerifier asks the authentication collaborator whether the request
// carries a valid session. ok is false for anonymous or invalid sessions.
type SessionVerifier interface {
	Session(ctx context.Context, header http.Header) (subjectID string, ok bool)
}

// AuthForwarder relays an admitted request to the authentication
// collaborator and writes its response back verbatim.
type AuthForwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, body []byte) error
	Ping(ctx context.Context) error
}

// EmailClassifier reports the set of quality defects for an email address.
type EmailClassifier interface {
	Classify(ctx context.Context, email string) []domain.EmailDefect
}

// BotClassifier judges whether a request looks automated based on its
// fingerprint and headers.
type BotClassifier interface {
	Classify(r *http.Request) domain.BotVerdict
}

// AdmissionService composes the policy rules per route class into a single
// decision.
type AdmissionService interface {
	Admit(ctx context.Context, in domain.AdmissionInput) domain.PolicyDecision
}

// TenantContextService selects the active tenant for a newly created
// session. ok is false when the subject belongs to no tenant or the store
// is unavailable.
type TenantContextService interface {
	ResolveActiveTenant(ctx context.Context, subjectID string) (tenantID string, ok bool)
}

// SubscriptionAuthorizer decides whether a subject's role in a tenant
// permits a billing action. Store failures deny.
type SubscriptionAuthorizer interface {
	Authorize(ctx context.Context, subjectID, tenantID string, action domain.BillingAction) bool
}
