package domain

import (
	"time"
)

type Role string

const (
	RoleOwner  Role = "owner"  // Full control including billing mutations
	RoleAdmin  Role = "admin"  // Manages members, no billing mutations by default
	RoleMember Role = "member" // Regular membership
)

// TenantMembership is one (subject, tenant) row. Created when a subject
// joins a tenant directly or accepts an invitation; only the role is ever
// mutated afterwards.
type TenantMembership struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"user_id"`
	TenantID  string    `json:"organization_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// SessionContext is the tenant context attached to a session at creation.
// ActiveTenantID is set exactly once and never recomputed for the session's
// lifetime; switching tenants is a separate explicit operation.
type SessionContext struct {
	SubjectID      string `json:"userId"`
	ActiveTenantID string `json:"activeOrganizationId,omitempty"`
}

// BillingAction is a requested subscription operation. Wire strings match
// the upstream billing integration.
type BillingAction string

const (
	ActionUpgradeSubscription BillingAction = "upgrade-subscription"
	ActionCancelSubscription  BillingAction = "cancel-subscription"
	ActionRestoreSubscription BillingAction = "restore-subscription"
	ActionViewSubscription    BillingAction = "view-subscription"
)

// Mutating reports whether the action changes billing state. Mutating
// actions require an elevated role; view-type actions need only a
// membership row.
func (a BillingAction) Mutating() bool {
	switch a {
	case ActionUpgradeSubscription, ActionCancelSubscription, ActionRestoreSubscription:
		return true
	}
	return false
}

// ParseBillingAction validates an action received over the wire.
func ParseBillingAction(s string) (BillingAction, bool) {
	switch BillingAction(s) {
	case ActionUpgradeSubscription, ActionCancelSubscription,
		ActionRestoreSubscription, ActionViewSubscription:
		return BillingAction(s), true
	}
	return "", false
}
