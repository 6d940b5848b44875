package domain

import "errors"

var (
	// ErrRuleStoreUnavailable marks an infrastructure failure reaching the
	// rule-state store. The admission engine fails closed on it.
	ErrRuleStoreUnavailable = errors.New("rule-state store unavailable")

	// ErrMembershipUnavailable marks an infrastructure failure reaching the
	// tenant-membership store. Tenant-context resolution degrades to "no
	// active tenant"; subscription authorization fails closed.
	ErrMembershipUnavailable = errors.New("membership store unavailable")

	// ErrNoMembership is returned by point lookups when no (subject, tenant)
	// row exists.
	ErrNoMembership = errors.New("no membership")
)
