package analysis

import (
	"context"
	"fmt"
	"sync"

	id "odontoforense/pkg/domain"
)

// MockClient is a deterministic stand-in for the collaborator, used in tests
// and in deployments where no analysis endpoint is configured.
type MockClient struct {
	mu    sync.Mutex
	calls []string
}

// NewMockClient creates a new MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Analyze answers with a canned sentence derived from the inputs, so the same
// call always yields the same text.
func (m *MockClient) Analyze(_ context.Context, caseID id.CaseID, action string) (string, error) {
	parsed, err := ParseAction(action)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.calls = append(m.calls, string(parsed))
	m.mu.Unlock()

	switch parsed {
	case ActionResumo:
		return fmt.Sprintf("Resumo pericial do caso %s: sem conclusões automáticas.", caseID), nil
	case ActionIdentificacaoCruzada:
		return fmt.Sprintf("Identificação cruzada do caso %s: nenhuma correspondência avaliada.", caseID), nil
	default:
		return fmt.Sprintf("Laudo preliminar do caso %s: pendente de revisão por perito.", caseID), nil
	}
}

// Calls returns the actions asked of the mock, in order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
