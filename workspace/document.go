package workspace

import (
	"context"
	"sync"
)

// Document is an immutable snapshot of a single source or additional file in
// a project. Two documents with the same identity but different versions are
// snapshots of the same logical document.
//
// The text is loaded lazily through the document's TextLoader and memoized,
// so concurrent readers of the same snapshot observe one load. A failed or
// cancelled load is not memoized and may be retried.
type Document struct {
	id       DocumentID
	name     string
	folders  []string
	filePath string
	version  VersionStamp
	encoding string
	loader   TextLoader

	textMu     sync.Mutex
	text       SourceText
	textLoaded bool
}

func newDocument(info DocumentInfo) *Document {
	id := info.ID
	return &Document{
		id:       id,
		name:     info.Name,
		folders:  append([]string(nil), info.Folders...),
		filePath: info.FilePath,
		version:  NewVersionStamp(),
		encoding: info.Encoding,
		loader:   info.Loader,
	}
}

// ID returns the stable identity of the document.
func (d *Document) ID() DocumentID { return d.id }

// Name returns the display name of the document.
func (d *Document) Name() string { return d.name }

// Folders returns the logical folder segments containing the document.
func (d *Document) Folders() []string { return d.folders }

// FilePath returns the on-disk backing path, or "" for in-memory documents.
func (d *Document) FilePath() string { return d.filePath }

// Version returns the text version of this snapshot.
func (d *Document) Version() VersionStamp { return d.version }

// Encoding returns the fixed encoding of the document if known, or the
// encoding of the loaded text once a read has happened.
func (d *Document) Encoding() string {
	if d.encoding != "" {
		return d.encoding
	}
	d.textMu.Lock()
	defer d.textMu.Unlock()
	if d.textLoaded {
		return d.text.Encoding
	}
	return ""
}

// Text returns the document text, loading it through the text boundary on
// first use. The load is all-or-nothing: a cancellation or I/O failure leaves
// the snapshot unchanged.
func (d *Document) Text(ctx context.Context) (SourceText, error) {
	d.textMu.Lock()
	defer d.textMu.Unlock()
	if d.textLoaded {
		return d.text, nil
	}
	if d.loader == nil {
		return SourceText{}, &NotFoundError{Path: d.name}
	}
	text, err := d.loader.LoadText(ctx)
	if err != nil {
		return SourceText{}, err
	}
	if d.encoding != "" {
		text.Encoding = d.encoding
	} else if text.Encoding == "" {
		text.Encoding = EncodingUTF8
	}
	text.Version = d.version
	d.text = text
	d.textLoaded = true
	return text, nil
}

// TryGetText returns the memoized text without triggering a load. It reports
// false when no load has happened on this snapshot yet.
func (d *Document) TryGetText() (SourceText, bool) {
	d.textMu.Lock()
	defer d.textMu.Unlock()
	return d.text, d.textLoaded
}

// WithText produces a new snapshot of the same logical document holding the
// given content under a strictly newer version. The receiver is untouched.
func (d *Document) WithText(content string) *Document {
	encoding := d.encoding
	if encoding == "" {
		d.textMu.Lock()
		if d.textLoaded {
			encoding = d.text.Encoding
		}
		d.textMu.Unlock()
	}
	if encoding == "" {
		encoding = EncodingUTF8
	}
	next := &Document{
		id:       d.id,
		name:     d.name,
		folders:  d.folders,
		filePath: d.filePath,
		version:  d.version.GetNewerVersion(),
		encoding: encoding,
		loader:   d.loader,
	}
	next.text = SourceText{Content: content, Encoding: encoding, Version: next.version}
	next.textLoaded = true
	return next
}
