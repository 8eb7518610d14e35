package interfaces

import (
	"context"

	"github.com/ykvit/knowledge-gateway/internal/relay"
	"github.com/ykvit/knowledge-gateway/internal/service"
	"github.com/ykvit/knowledge-gateway/internal/source"
)

// This file defines the contracts the API layer depends on. Handlers are
// written against these interfaces rather than concrete services, which
// keeps the layers decoupled and testable via the mocks package.

// QueryService is the query orchestration contract.
type QueryService interface {
	// StreamAnswer runs the pipeline and writes relay events to the channel,
	// closing it when finished. The caller emits the terminal marker.
	StreamAnswer(ctx context.Context, req *service.QueryRequest, events chan<- relay.Event)
	// Answer runs the pipeline in buffered mode.
	Answer(ctx context.Context, req *service.QueryRequest) (*service.QueryResponse, error)
	// Catalog lists the available sources.
	Catalog() []source.Descriptor
}
