package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ykvit/knowledge-gateway/internal/relay"
	"github.com/ykvit/knowledge-gateway/internal/service"
	"github.com/ykvit/knowledge-gateway/internal/source"
)

// MockQueryService is a testify mock for interfaces.QueryService.
type MockQueryService struct {
	mock.Mock
}

func NewMockQueryService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockQueryService {
	m := &MockQueryService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockQueryService) StreamAnswer(ctx context.Context, req *service.QueryRequest, events chan<- relay.Event) {
	m.Called(ctx, req, events)
}

func (m *MockQueryService) Answer(ctx context.Context, req *service.QueryRequest) (*service.QueryResponse, error) {
	args := m.Called(ctx, req)
	var resp *service.QueryResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*service.QueryResponse)
	}
	return resp, args.Error(1)
}

func (m *MockQueryService) Catalog() []source.Descriptor {
	args := m.Called()
	var catalog []source.Descriptor
	if args.Get(0) != nil {
		catalog = args.Get(0).([]source.Descriptor)
	}
	return catalog
}
