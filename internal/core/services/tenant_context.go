package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Richwell111/auth2/internal/core/domain"
	"github.com/Richwell111/auth2/internal/core/ports"
	"github.com/Richwell111/auth2/internal/infrastructure/metrics"
)

type tenantContextService struct {
	repo   ports.MembershipRepository
	logger *slog.Logger
}

// NewTenantContextService builds the resolver that picks a session's
// active tenant at creation time.
func NewTenantContextService(repo ports.MembershipRepository, logger *slog.Logger) ports.TenantContextService {
	return &tenantContextService{repo: repo, logger: logger}
}

// ResolveActiveTenant returns the tenant of the subject's most recently
// joined membership. A store failure degrades to "no active tenant" so
// session creation still succeeds without tenant context.
func (s *tenantContextService) ResolveActiveTenant(ctx context.Context, subjectID string) (string, bool) {
	memberships, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		metrics.MembershipLookups.WithLabelValues("tenant_context", "error").Inc()
		s.logger.Error("membership store unavailable, session gets no active tenant",
			"component", "tenant_context", "identity", subjectID, "error", err)
		return "", false
	}
	if len(memberships) == 0 {
		metrics.MembershipLookups.WithLabelValues("tenant_context", "none").Inc()
		return "", false
	}
	metrics.MembershipLookups.WithLabelValues("tenant_context", "found").Inc()
	// ListBySubject orders by join time descending.
	return memberships[0].TenantID, true
}

type subscriptionAuthorizer struct {
	repo     ports.MembershipRepository
	mutators map[domain.Role]bool
	logger   *slog.Logger
}

// NewSubscriptionAuthorizer builds the billing-action authorizer.
// mutatorRoles is the set of roles allowed to run state-changing actions;
// when empty it defaults to owner only.
func NewSubscriptionAuthorizer(repo ports.MembershipRepository, mutatorRoles []domain.Role, logger *slog.Logger) ports.SubscriptionAuthorizer {
	mutators := make(map[domain.Role]bool, len(mutatorRoles))
	for _, r := range mutatorRoles {
		mutators[r] = true
	}
	if len(mutators) == 0 {
		mutators[domain.RoleOwner] = true
	}
	return &subscriptionAuthorizer{repo: repo, mutators: mutators, logger: logger}
}

// Authorize is a stateless predicate over the membership table's current
// contents. No membership row denies; mutating actions additionally
// require a mutator role; a store failure denies.
func (s *subscriptionAuthorizer) Authorize(ctx context.Context, subjectID, tenantID string, action domain.BillingAction) bool {
	m, err := s.repo.Get(ctx, subjectID, tenantID)
	if errors.Is(err, domain.ErrNoMembership) {
		metrics.MembershipLookups.WithLabelValues("subscription", "none").Inc()
		return false
	}
	if err != nil {
		metrics.MembershipLookups.WithLabelValues("subscription", "error").Inc()
		s.logger.Error("membership store unavailable, denying billing action",
			"component", "subscription", "identity", subjectID, "tenant", tenantID, "error", err)
		return false
	}
	metrics.MembershipLookups.WithLabelValues("subscription", "found").Inc()

	if action.Mutating() {
		return s.mutators[m.Role]
	}
	return true
}
