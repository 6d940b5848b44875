package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Richwell111/auth2/internal/core/domain"
	"github.com/Richwell111/auth2/internal/core/ports"
	"github.com/Richwell111/auth2/internal/infrastructure/metrics"
)

// AdmissionConfig carries the per-route rule configuration.
type AdmissionConfig struct {
	SignupRate  domain.RateLimitConfig
	GenericRate domain.RateLimitConfig
	// BotAllowlist names trusted automated callers that bypass bot denial.
	BotAllowlist []string
	// BotFlagTTL bounds how long a denied key stays flagged in the
	// rule-state store.
	BotFlagTTL time.Duration
}

// DefaultAdmissionConfig mirrors the production gate: signup is restricted
// to 10 requests per 10 minutes, everything else to 60 per minute, and the
// billing webhook caller is trusted.
func DefaultAdmissionConfig() AdmissionConfig {
	return AdmissionConfig{
		SignupRate:   domain.RateLimitConfig{Name: "signup", Limit: 10, Interval: 10 * time.Minute},
		GenericRate:  domain.RateLimitConfig{Name: "generic", Limit: 60, Interval: time.Minute},
		BotAllowlist: []string{"stripe-webhook"},
		BotFlagTTL:   24 * time.Hour,
	}
}

type admissionService struct {
	store  ports.RuleStateStore
	emails ports.EmailClassifier
	cfg    AdmissionConfig
	allow  map[string]struct{}
	logger *slog.Logger
}

// NewAdmissionService builds the admission engine over a rule-state store
// and an email classifier.
func NewAdmissionService(store ports.RuleStateStore, emails ports.EmailClassifier, cfg AdmissionConfig, logger *slog.Logger) ports.AdmissionService {
	allow := make(map[string]struct{}, len(cfg.BotAllowlist))
	for _, name := range cfg.BotAllowlist {
		allow[name] = struct{}{}
	}
	if cfg.BotFlagTTL <= 0 {
		cfg.BotFlagTTL = 24 * time.Hour
	}
	return &admissionService{store: store, emails: emails, cfg: cfg, allow: allow, logger: logger}
}

// Admit evaluates the rules for the request's route class. Every rule in
// the composite runs before a verdict is chosen: the rate-limit increment
// must advance the window even when an earlier rule already denied, so the
// accounting for repeated offending traffic stays accurate. The denial
// reported is the first in precedence order (email, bot, rate limit).
func (s *admissionService) Admit(ctx context.Context, in domain.AdmissionInput) domain.PolicyDecision {
	var decisions []domain.PolicyDecision

	switch in.Route {
	case domain.RouteSignupWithEmail:
		decisions = append(decisions,
			s.evaluateEmail(ctx, in.Email),
			s.evaluateBot(ctx, in),
			s.evaluateRate(ctx, s.cfg.SignupRate, in.Key),
		)
	case domain.RouteSignupWithoutEmail:
		decisions = append(decisions,
			s.evaluateBot(ctx, in),
			s.evaluateRate(ctx, s.cfg.SignupRate, in.Key),
		)
	default:
		decisions = append(decisions,
			s.evaluateBot(ctx, in),
			s.evaluateRate(ctx, s.cfg.GenericRate, in.Key),
		)
	}

	for _, d := range decisions {
		if !d.Allowed {
			return d
		}
	}
	return domain.Allow()
}

// evaluateRate advances the window for (config, key) and compares the new
// count against the limit. The increment runs detached from request
// cancellation: a committed count must stand even if the caller aborts,
// otherwise limits could be evaded by cancelling requests. A store failure
// fails closed with a generic denial.
func (s *admissionService) evaluateRate(ctx context.Context, cfg domain.RateLimitConfig, key domain.IdentityKey) domain.PolicyDecision {
	count, err := s.store.Increment(context.WithoutCancel(ctx), cfg.Name+":"+string(key), cfg.Interval)
	if err != nil {
		metrics.RuleStoreFailures.WithLabelValues(domain.RuleRateLimit).Inc()
		s.logger.Error("rule-state store unavailable, failing closed",
			"rule", domain.RuleRateLimit, "config", cfg.Name, "identity", string(key), "error", err)
		return domain.Deny(domain.ReasonNone, domain.RuleRateLimit)
	}
	if count > cfg.Limit {
		return domain.Deny(domain.ReasonRateLimit, domain.RuleRateLimit)
	}
	return domain.Allow()
}

func (s *admissionService) evaluateBot(ctx context.Context, in domain.AdmissionInput) domain.PolicyDecision {
	if in.Bot.Caller != "" {
		if _, ok := s.allow[in.Bot.Caller]; ok {
			return domain.Allow()
		}
	}
	if !in.Bot.Automated {
		return domain.Allow()
	}

	// Remember offending keys in the shared store. Best effort: a flag
	// write failure never changes the verdict.
	if err := s.store.FlagBot(context.WithoutCancel(ctx), "botflag:"+string(in.Key), s.cfg.BotFlagTTL); err != nil {
		s.logger.Warn("failed to persist bot flag",
			"rule", domain.RuleBot, "identity", string(in.Key), "error", err)
	}
	return domain.Deny(domain.ReasonBotSuspected, domain.RuleBot)
}

// evaluateEmail maps the classifier's defect set to a single reason:
// invalid wins over disposable, disposable over missing mail exchanger.
func (s *admissionService) evaluateEmail(ctx context.Context, email string) domain.PolicyDecision {
	defects := s.emails.Classify(ctx, email)
	if len(defects) == 0 {
		return domain.Allow()
	}

	has := make(map[domain.EmailDefect]bool, len(defects))
	for _, d := range defects {
		has[d] = true
	}
	switch {
	case has[domain.EmailDefectInvalid]:
		return domain.Deny(domain.ReasonEmailInvalid, domain.RuleEmail)
	case has[domain.EmailDefectDisposable]:
		return domain.Deny(domain.ReasonEmailDisposable, domain.RuleEmail)
	case has[domain.EmailDefectNoMX]:
		return domain.Deny(domain.ReasonEmailNoMX, domain.RuleEmail)
	}
	return domain.Deny(domain.ReasonEmailInvalid, domain.RuleEmail)
}
