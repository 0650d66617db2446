package collectors

import (
	"context"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

type documentParams struct {
	DocumentPath string `mapstructure:"document_path"`
	PDFPath      string `mapstructure:"pdf_path"`
}

func (p documentParams) path() string {
	if s := strings.TrimSpace(p.DocumentPath); s != "" {
		return s
	}
	return strings.TrimSpace(p.PDFPath)
}

type documentCollector struct {
	reader DocumentReader
	path   string
}

func newDocument(deps Deps, params Params) (Collector, error) {
	var p documentParams
	if err := decodeParams(SourceDocument, params, &p); err != nil {
		return nil, err
	}
	return &documentCollector{reader: deps.Documents, path: p.path()}, nil
}

func (c *documentCollector) ID() SourceID { return SourceDocument }

func (c *documentCollector) Collect(ctx context.Context) []merger.ContextChunk {
	if c.path == "" {
		return nil
	}
	source := "document:" + c.path
	if c.reader == nil {
		return errorChunk(source, merger.CategoryDocument, "document reader not configured", nil)
	}
	text, err := c.reader.Read(ctx, c.path)
	if err != nil {
		return []merger.ContextChunk{failure(source, merger.CategoryDocument, "error loading document", err, nil)}
	}
	return []merger.ContextChunk{merger.NewChunk(source, merger.CategoryDocument, text, nil)}
}
