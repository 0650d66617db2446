package documents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLocalText(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "brief.md")
	require.NoError(t, os.WriteFile(p, []byte("  # Briefing\nGrain-free dog food launch.\n"), 0o600))

	text, err := NewReader(nil, 0).Read(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "# Briefing\nGrain-free dog food launch.", text)
}

func TestReadLocalHTML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(p, []byte("<html><body><h1>Title</h1><p>Body text</p><script>x()</script></body></html>"), 0o600))

	text, err := NewReader(nil, 0).Read(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Title\nBody text", text)
}

func TestReadRejectsBinaryAndMissing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(p, []byte{0xff, 0xfe, 0x00, 0x80}, 0o600))

	r := NewReader(nil, 0)
	_, err := r.Read(context.Background(), p)
	require.ErrorIs(t, err, ErrBinary)

	_, err = r.Read(context.Background(), filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestReadS3PathNeedsObjectStore(t *testing.T) {
	t.Parallel()
	_, err := NewReader(nil, 0).Read(context.Background(), "s3://bucket/key.pdf")
	require.ErrorIs(t, err, ErrNoObjectStore)
}

func TestReadS3PathUsesLoader(t *testing.T) {
	t.Parallel()
	r := NewReader(nil, 0)
	r.loader = func(ctx context.Context, bucket, key string) ([]byte, error) {
		return []byte("object " + bucket + "/" + key), nil
	}
	text, err := r.Read(context.Background(), "s3://briefs/acme/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "object briefs/acme/notes.txt", text)

	_, err = r.Read(context.Background(), "s3://only-bucket")
	require.Error(t, err)
}

func TestReadBrokenPDF(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4 not really a pdf"), 0o600))
	_, err := NewReader(nil, 0).Read(context.Background(), p)
	require.Error(t, err)
}
