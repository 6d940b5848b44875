package emailcheck

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/mail"
	"strings"

	"github.com/Richwell111/auth2/internal/core/domain"
)

// defaultDisposableDomains is a starter set; deployments extend it via
// configuration.
var defaultDisposableDomains = []string{
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
	"tempmail.com",
	"temp-mail.org",
	"throwawaymail.com",
	"yopmail.com",
	"getnada.com",
	"trashmail.com",
	"sharklasers.com",
}

// MXResolver is the slice of net.Resolver the classifier needs.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Classifier implements ports.EmailClassifier. The three checks are
// independent: a syntactically broken address still gets its domain part
// checked against the disposable set.
type Classifier struct {
	resolver   MXResolver
	disposable map[string]struct{}
	logger     *slog.Logger
}

// New builds a classifier. extraDisposable extends the built-in disposable
// domain set.
func New(resolver MXResolver, extraDisposable []string, logger *slog.Logger) *Classifier {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	disposable := make(map[string]struct{}, len(defaultDisposableDomains)+len(extraDisposable))
	for _, d := range defaultDisposableDomains {
		disposable[strings.ToLower(d)] = struct{}{}
	}
	for _, d := range extraDisposable {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			disposable[d] = struct{}{}
		}
	}
	return &Classifier{resolver: resolver, disposable: disposable, logger: logger}
}

// Classify returns the set of defects detected for email.
func (c *Classifier) Classify(ctx context.Context, email string) []domain.EmailDefect {
	var defects []domain.EmailDefect

	if !validSyntax(email) {
		defects = append(defects, domain.EmailDefectInvalid)
	}

	dom := domainPart(email)
	if dom == "" {
		return defects
	}

	if _, ok := c.disposable[dom]; ok {
		defects = append(defects, domain.EmailDefectDisposable)
	}

	if noMX, ok := c.lookupNoMX(ctx, dom); ok && noMX {
		defects = append(defects, domain.EmailDefectNoMX)
	}

	return defects
}

// lookupNoMX reports (true, true) when the domain authoritatively has no
// mail exchanger. A transient resolver failure is not a defect: the check
// is skipped and logged rather than punishing the user for our DNS.
func (c *Classifier) lookupNoMX(ctx context.Context, dom string) (noMX bool, ok bool) {
	records, err := c.resolver.LookupMX(ctx, dom)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return true, true
		}
		c.logger.Warn("mx lookup failed, skipping check", "domain", dom, "error", err)
		return false, false
	}
	return len(records) == 0, true
}

func validSyntax(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress accepts display names; the payload field must be a bare
	// address.
	return addr.Address == email
}

func domainPart(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
