package provider

import "context"

// MockClient is a test double for the provider Client interface.
type MockClient struct {
	Response *Response
	Err      error
	Calls    []Request // records generation requests
}

// Generate records the call and returns the mock response.
func (m *MockClient) Generate(ctx context.Context, req Request) (*Response, error) {
	m.Calls = append(m.Calls, req)
	return m.Response, m.Err
}

// Models returns a single fake model.
func (m *MockClient) Models(ctx context.Context) ([]ModelInfo, error) {
	return []ModelInfo{{ID: "mock/model", Name: "Mock Model"}}, nil
}
