// Package textfile implements the on-disk half of the workspace text
// boundary: reading document text with encoding detection and a bounded retry
// for transiently locked files, and writing text back under a scoped file
// lock.
package textfile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/foundry-lang/foundry/workspace"
)

const (
	// defaultRetryDelay is how long a read waits before its single retry
	// when the file is locked or busy.
	defaultRetryDelay = 50 * time.Millisecond

	// lockTimeout bounds how long a write waits for the file lock.
	lockTimeout = 2 * time.Second

	encodingWindows1252 = "windows-1252"
)

// Source reads and writes document text on the local filesystem. It
// implements workspace.TextWriter and manufactures workspace.TextLoaders.
type Source struct {
	retryDelay time.Duration
	logger     *zap.Logger
}

// Option customizes a Source.
type Option func(*Source)

// WithRetryDelay overrides the delay before the single read retry.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Source) { s.retryDelay = d }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// NewSource constructs a filesystem text source.
func NewSource(opts ...Option) *Source {
	s := &Source{
		retryDelay: defaultRetryDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoaderFor returns a lazy text loader for the file at path.
func (s *Source) LoaderFor(path string) workspace.TextLoader {
	return workspace.TextLoaderFunc(func(ctx context.Context) (workspace.SourceText, error) {
		return s.LoadText(ctx, path)
	})
}

// LoadText reads the file at path. A read that races a concurrent external
// writer is retried once after a short delay before surfacing an IOError.
// Invalid UTF-8 never fails the load; the text is re-decoded with a default
// single-byte fallback encoding instead.
func (s *Source) LoadText(ctx context.Context, path string) (workspace.SourceText, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return workspace.SourceText{}, &workspace.NotFoundError{Path: path}
		}
		s.logger.Debug("read failed, retrying once",
			zap.String("path", path), zap.Error(err))
		select {
		case <-ctx.Done():
			return workspace.SourceText{}, ctx.Err()
		case <-time.After(s.retryDelay):
		}
		raw, err = os.ReadFile(path)
		if err != nil {
			return workspace.SourceText{}, &workspace.IOError{Path: path, Err: err}
		}
	}

	content, encoding := decode(raw)
	return workspace.SourceText{
		Content:  content,
		Encoding: encoding,
		Version:  workspace.NewVersionStamp(),
	}, nil
}

// decode interprets raw bytes as UTF-8 when valid, falling back to
// Windows-1252 otherwise. The fallback maps every byte, so decoding cannot
// fail the load.
func decode(raw []byte) (string, string) {
	if utf8.Valid(raw) {
		return string(raw), workspace.EncodingUTF8
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), workspace.EncodingUTF8
	}
	return string(decoded), encodingWindows1252
}

// WriteText replaces the contents at path, encoding per text.Encoding. The
// file lock is acquired for the duration of the write and released on every
// exit path.
func (s *Source) WriteText(path string, text workspace.SourceText) error {
	lock := flock.New(path)
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, s.retryDelay)
	if err != nil {
		return &workspace.IOError{Path: path, Err: err}
	}
	if !locked {
		return &workspace.IOError{Path: path, Err: errors.New("file is locked")}
	}
	defer lock.Unlock() //nolint:errcheck

	raw, err := encode(text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return &workspace.IOError{Path: path, Err: err}
	}
	return nil
}

func encode(text workspace.SourceText) ([]byte, error) {
	switch text.Encoding {
	case "", workspace.EncodingUTF8:
		return []byte(text.Content), nil
	case encodingWindows1252:
		raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text.Content))
		if err != nil {
			// Unmappable runes fall back to UTF-8 rather than
			// losing the write.
			return []byte(text.Content), nil
		}
		return raw, nil
	default:
		return nil, &workspace.EncodingError{Encoding: text.Encoding}
	}
}

// Remove deletes the file at path. Missing files are not an error; the
// document is already gone.
func (s *Source) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &workspace.IOError{Path: path, Err: err}
	}
	return nil
}
