package workspace

import "context"

// EncodingUTF8 is the default text encoding substituted whenever a source's
// encoding is unknown or cannot be mapped.
const EncodingUTF8 = "utf-8"

// SourceText is document text together with the encoding it was read with
// and the version of the read.
type SourceText struct {
	// Content is the full text of the document.
	Content string

	// Encoding names the encoding the text was decoded from. Empty means
	// unknown; it becomes fixed after the first successful read and is
	// reused for subsequent writes.
	Encoding string

	// Version stamps this particular text state.
	Version VersionStamp
}

// TextLoader produces the text of a single document on demand. Loads may
// suspend on file I/O; implementations must honor ctx and must be
// all-or-nothing under cancellation.
type TextLoader interface {
	LoadText(ctx context.Context) (SourceText, error)
}

// TextLoaderFunc adapts a function to the TextLoader interface.
type TextLoaderFunc func(ctx context.Context) (SourceText, error)

// LoadText calls f.
func (f TextLoaderFunc) LoadText(ctx context.Context) (SourceText, error) {
	return f(ctx)
}

// StaticText returns a loader that always yields the given content with a
// version minted now. Useful for in-memory documents and tests.
func StaticText(content string) TextLoader {
	text := SourceText{Content: content, Encoding: EncodingUTF8, Version: NewVersionStamp()}
	return TextLoaderFunc(func(context.Context) (SourceText, error) {
		return text, nil
	})
}

// TextWriter is the side-effecting half of the text boundary: it persists
// document text to backing storage during change application.
type TextWriter interface {
	// WriteText replaces the contents at path, honoring text.Encoding when
	// it is known.
	WriteText(path string, text SourceText) error

	// Remove deletes the backing file for a removed document.
	Remove(path string) error
}
