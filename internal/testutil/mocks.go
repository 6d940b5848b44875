package testutil

import (
	"context"
	"net/http"

	"github.com/Richwell111/auth2/internal/core/domain"
)

// MockSessionVerifier implements ports.SessionVerifier for testing.
type MockSessionVerifier struct {
	SubjectID string
	OK        bool
}

func (m *MockSessionVerifier) Session(_ context.Context, _ http.Header) (string, bool) {
	return m.SubjectID, m.OK
}

// MockAuthForwarder implements ports.AuthForwarder for testing. It records
// the last forwarded body and replies with a fixed response.
type MockAuthForwarder struct {
	Status   int
	Body     string
	Err      error
	Calls    int
	LastBody []byte
}

func (m *MockAuthForwarder) Forward(w http.ResponseWriter, _ *http.Request, body []byte) error {
	m.Calls++
	m.LastBody = body
	if m.Err != nil {
		return m.Err
	}
	status := m.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if m.Body != "" {
		_, _ = w.Write([]byte(m.Body))
	}
	return nil
}

func (m *MockAuthForwarder) Ping(_ context.Context) error { return nil }

// MockBotClassifier implements ports.BotClassifier for testing.
type MockBotClassifier struct {
	Verdict domain.BotVerdict
}

func (m *MockBotClassifier) Classify(_ *http.Request) domain.BotVerdict { return m.Verdict }

// MockEmailClassifier implements ports.EmailClassifier for testing.
type MockEmailClassifier struct {
	Defects map[string][]domain.EmailDefect
}

func (m *MockEmailClassifier) Classify(_ context.Context, email string) []domain.EmailDefect {
	return m.Defects[email]
}

// MockTenantContext implements ports.TenantContextService for testing.
type MockTenantContext struct {
	TenantID string
	OK       bool
}

func (m *MockTenantContext) ResolveActiveTenant(_ context.Context, _ string) (string, bool) {
	return m.TenantID, m.OK
}

// MockSubscriptionAuthorizer implements ports.SubscriptionAuthorizer for
// testing.
type MockSubscriptionAuthorizer struct {
	Allowed    bool
	LastAction domain.BillingAction
}

func (m *MockSubscriptionAuthorizer) Authorize(_ context.Context, _, _ string, action domain.BillingAction) bool {
	m.LastAction = action
	return m.Allowed
}
