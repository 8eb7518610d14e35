package mocks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/ykvit/knowledge-gateway/internal/llm"
)

// MockCompletionClient is a testify mock for llm.CompletionClient.
type MockCompletionClient struct {
	mock.Mock
}

func NewMockCompletionClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCompletionClient {
	m := &MockCompletionClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCompletionClient) Stream(ctx context.Context, req *llm.ChatRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	var body io.ReadCloser
	if args.Get(0) != nil {
		body = args.Get(0).(io.ReadCloser)
	}
	return body, args.Error(1)
}

func (m *MockCompletionClient) Complete(ctx context.Context, req *llm.ChatRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	var raw json.RawMessage
	if args.Get(0) != nil {
		raw = args.Get(0).(json.RawMessage)
	}
	return raw, args.Error(1)
}

func (m *MockCompletionClient) Forward(ctx context.Context, body []byte) (*http.Response, error) {
	args := m.Called(ctx, body)
	var resp *http.Response
	if args.Get(0) != nil {
		resp = args.Get(0).(*http.Response)
	}
	return resp, args.Error(1)
}

func (m *MockCompletionClient) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
