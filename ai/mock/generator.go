package mock

import "context"

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, a canned response echoing the prompt length is returned.
	GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

	callCount int
}

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a canned answer or delegates to GenerateFunc.
func (m *MockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.callCount++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, prompt)
	}
	return "mock answer", nil
}

// CallCount returns the number of Generate invocations.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
}
