package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_fetch"
)

const (
	s3Scheme        = "s3://"
	DefaultMaxBytes = 32 << 20
)

var (
	ErrNoObjectStore = errors.New("s3 path given but object storage is not configured")
	ErrBinary        = errors.New("document is neither PDF, HTML nor text")
)

// Reader extracts plain text from a document path.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// ObjectGetter is the slice of the minio client the reader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// S3Config mirrors the storage.s3 config section.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// NewS3Client connects to an S3-compatible store.
func NewS3Client(cfg S3Config) (*minio.Client, error) {
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
}

// FileReader reads local files and, when objects is set, s3://bucket/key paths.
type FileReader struct {
	objects  ObjectGetter
	loader   func(ctx context.Context, bucket, key string) ([]byte, error)
	maxBytes int64
	blocks   web_fetch.BlockExtractor
}

func NewReader(objects ObjectGetter, maxBytes int64) *FileReader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	r := &FileReader{objects: objects, maxBytes: maxBytes, blocks: web_fetch.TagExtractor{MinChars: 1}}
	if objects != nil {
		r.loader = r.loadObject
	}
	return r
}

func (r *FileReader) Read(ctx context.Context, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("empty document path")
	}
	data, err := r.load(ctx, path)
	if err != nil {
		return "", err
	}
	return r.extract(path, data)
}

func (r *FileReader) load(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, s3Scheme) {
		if r.loader == nil {
			return nil, ErrNoObjectStore
		}
		bucket, key, ok := strings.Cut(strings.TrimPrefix(path, s3Scheme), "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("malformed s3 path %q", path)
		}
		return r.loader(ctx, bucket, key)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, r.maxBytes))
}

func (r *FileReader) loadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := r.objects.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(io.LimitReader(obj, r.maxBytes))
}

func (r *FileReader) extract(path string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf" || bytes.HasPrefix(data, []byte("%PDF-")):
		return pdfText(data)
	case ext == ".html" || ext == ".htm":
		return strings.Join(r.blocks.ExtractBlocks(string(data)), "\n"), nil
	case utf8.Valid(data):
		return strings.TrimSpace(string(data)), nil
	default:
		return "", ErrBinary
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", errors.New("pdf contains no extractable text")
	}
	return helpers.CollapseWhitespace(text), nil
}
