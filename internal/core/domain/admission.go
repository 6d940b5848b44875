package domain

import (
	"time"
)

// IdentityKey partitions policy state. It is a stable subject id for
// authenticated callers, a client address for anonymous ones, and the
// loopback fallback when neither can be determined. Never empty.
type IdentityKey string

// FallbackIdentity is used when neither a session nor a client address
// is available.
const FallbackIdentity IdentityKey = "127.0.0.1"

// RouteClass is derived once per request from the target path and the
// payload, and does not change for the lifetime of the request.
type RouteClass string

const (
	RouteSignupWithEmail    RouteClass = "signup_with_email"
	RouteSignupWithoutEmail RouteClass = "signup_without_email"
	RouteGeneric            RouteClass = "generic"
)

// ReasonKind identifies which class of policy denial fired. At most one
// reason is reported per decision even when several rules would deny.
type ReasonKind string

const (
	ReasonNone            ReasonKind = "none"
	ReasonRateLimit       ReasonKind = "rate_limit"
	ReasonBotSuspected    ReasonKind = "bot_suspected"
	ReasonEmailInvalid    ReasonKind = "email_invalid"
	ReasonEmailDisposable ReasonKind = "email_disposable"
	ReasonEmailNoMX       ReasonKind = "email_no_mx"
)

// Rule names, reported in decisions and infrastructure failure logs.
const (
	RuleBot       = "bot"
	RuleRateLimit = "rate_limit"
	RuleEmail     = "email"
)

// PolicyDecision is the single discriminated outcome of an admission check.
type PolicyDecision struct {
	Allowed bool
	Reason  ReasonKind
	Rule    string // rule that fired; empty when allowed
}

// Allow is the decision for admitted traffic.
func Allow() PolicyDecision {
	return PolicyDecision{Allowed: true, Reason: ReasonNone}
}

// Deny builds a denial attributed to a rule.
func Deny(reason ReasonKind, rule string) PolicyDecision {
	return PolicyDecision{Allowed: false, Reason: reason, Rule: rule}
}

// RateLimitConfig is one named sliding-window configuration. Windows for
// different configurations are tracked independently per identity key.
type RateLimitConfig struct {
	Name     string
	Limit    int64
	Interval time.Duration
}

// BotVerdict is the classifier's view of a single request. Caller carries
// the name of a recognized automated caller (e.g. "stripe-webhook") so the
// bot rule can apply its allow-list.
type BotVerdict struct {
	Automated bool
	Caller    string
}

// EmailDefect is one independent email-quality classification.
type EmailDefect string

const (
	EmailDefectInvalid    EmailDefect = "invalid"
	EmailDefectDisposable EmailDefect = "disposable"
	EmailDefectNoMX       EmailDefect = "no_mx_records"
)

// AdmissionInput carries everything the admission engine needs for one
// request. Email is empty for routes without an email payload.
type AdmissionInput struct {
	Route RouteClass
	Key   IdentityKey
	Email string
	Bot   BotVerdict
}
