package collectors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

// ErrMissingCredentials is wrapped by every ConfigurationError.
var ErrMissingCredentials = errors.New("missing credentials")

// ConfigurationError names the settings a source needs but does not have.
type ConfigurationError struct {
	Source  SourceID
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not configured: set %s", e.Source, strings.Join(e.Missing, " or "))
}

func (e *ConfigurationError) Unwrap() error { return ErrMissingCredentials }

func errorChunk(source string, category merger.Category, msg string, meta map[string]any) []merger.ContextChunk {
	return []merger.ContextChunk{merger.ErrorChunk(source, category, "["+msg+"]", meta)}
}

func failure(source string, category merger.Category, what string, err error, meta map[string]any) merger.ContextChunk {
	return merger.ErrorChunk(source, category, fmt.Sprintf("[%s: %v]", what, err), meta)
}
