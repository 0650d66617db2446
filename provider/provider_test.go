package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()
	_, err := NewGenerator(context.Background(), Config{Provider: "openai"})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewGenerator(context.Background(), Config{Provider: "anthropic", APIKey: "k"})
	require.ErrorIs(t, err, ErrUnsupportedProvider)

	g, err := NewGenerator(context.Background(), Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestGeneratorFunc(t *testing.T) {
	t.Parallel()
	var g Generator = GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "echo:" + prompt, nil
	})
	out, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)
}
