package collectors

import (
	"context"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

type memoryParams struct {
	CustomerID string `mapstructure:"customer_id"`
}

type memoryCollector struct {
	store MemoryReader
	p     memoryParams
}

func newMemory(deps Deps, params Params) (Collector, error) {
	var p memoryParams
	if err := decodeParams(SourceMemory, params, &p); err != nil {
		return nil, err
	}
	p.CustomerID = strings.TrimSpace(p.CustomerID)
	return &memoryCollector{store: deps.Memory, p: p}, nil
}

func (c *memoryCollector) ID() SourceID { return SourceMemory }

func (c *memoryCollector) Collect(ctx context.Context) []merger.ContextChunk {
	if c.p.CustomerID == "" {
		return nil
	}
	source := "customer:" + c.p.CustomerID
	if c.store == nil {
		return errorChunk(source, merger.CategoryCustomer, "customer memory store not configured", nil)
	}
	text, err := c.store.Read(ctx, c.p.CustomerID)
	if err != nil {
		return []merger.ContextChunk{failure(source, merger.CategoryCustomer, "error loading customer memory", err, nil)}
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []merger.ContextChunk{merger.NewChunk(source, merger.CategoryCustomer, text, nil)}
}
