package botdetect

import (
	"net/http"
	"strings"

	"github.com/Richwell111/auth2/internal/core/domain"
)

// automatedMarkers are substrings of user agents that identify scripted
// traffic. Matching is case-insensitive.
var automatedMarkers = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"curl/",
	"wget/",
	"python-requests",
	"python-urllib",
	"go-http-client",
	"java/",
	"headlesschrome",
	"phantomjs",
}

// knownCaller maps a user-agent prefix to the name of a recognized
// automated caller. Recognized callers are still classified as automated;
// whether they are admitted is the bot rule's allow-list decision.
type knownCaller struct {
	uaPrefix string
	name     string
}

var knownCallers = []knownCaller{
	{uaPrefix: "Stripe/", name: "stripe-webhook"},
}

// Detector implements ports.BotClassifier using request header heuristics.
type Detector struct{}

func New() *Detector {
	return &Detector{}
}

// Classify inspects the request fingerprint. A missing user agent counts
// as automated: browsers always send one.
func (d *Detector) Classify(r *http.Request) domain.BotVerdict {
	ua := r.UserAgent()

	for _, kc := range knownCallers {
		if strings.HasPrefix(ua, kc.uaPrefix) {
			return domain.BotVerdict{Automated: true, Caller: kc.name}
		}
	}

	if ua == "" {
		return domain.BotVerdict{Automated: true}
	}

	lower := strings.ToLower(ua)
	for _, marker := range automatedMarkers {
		if strings.Contains(lower, marker) {
			return domain.BotVerdict{Automated: true}
		}
	}

	return domain.BotVerdict{}
}
