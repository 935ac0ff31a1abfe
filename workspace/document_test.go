package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentTextIsLoadedOnce(t *testing.T) {
	var loads int
	doc := newDocument(DocumentInfo{
		Name: "A.fy",
		Loader: TextLoaderFunc(func(context.Context) (SourceText, error) {
			loads++
			return SourceText{Content: "class C{}"}, nil
		}),
	})

	ctx := context.Background()
	first, err := doc.Text(ctx)
	require.NoError(t, err)
	second, err := doc.Text(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, EncodingUTF8, first.Encoding)
	assert.True(t, first.Version.Equal(doc.Version()))
}

func TestDocumentFailedLoadIsRetriable(t *testing.T) {
	attempts := 0
	doc := newDocument(DocumentInfo{
		Name: "A.fy",
		Loader: TextLoaderFunc(func(context.Context) (SourceText, error) {
			attempts++
			if attempts == 1 {
				return SourceText{}, errors.New("locked")
			}
			return SourceText{Content: "ok"}, nil
		}),
	})

	ctx := context.Background()
	_, err := doc.Text(ctx)
	require.Error(t, err)

	// A failed load is not memoized; the snapshot stays usable.
	text, err := doc.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", text.Content)
}

func TestDocumentWithoutLoader(t *testing.T) {
	doc := newDocument(DocumentInfo{Name: "A.fy"})
	_, err := doc.Text(context.Background())
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestTryGetTextDoesNotLoad(t *testing.T) {
	var loads int
	doc := newDocument(DocumentInfo{
		Name: "A.fy",
		Loader: TextLoaderFunc(func(context.Context) (SourceText, error) {
			loads++
			return SourceText{Content: "class C{}"}, nil
		}),
	})

	_, ok := doc.TryGetText()
	assert.False(t, ok)
	assert.Zero(t, loads)

	_, err := doc.Text(context.Background())
	require.NoError(t, err)

	text, ok := doc.TryGetText()
	require.True(t, ok)
	assert.Equal(t, "class C{}", text.Content)
	assert.Equal(t, 1, loads)
}

func TestWithTextFixesEncoding(t *testing.T) {
	doc := newDocument(DocumentInfo{
		Name:     "A.fy",
		Encoding: "windows-1252",
		Loader:   StaticText("original"),
	})

	next := doc.WithText("edited")
	assert.Equal(t, "windows-1252", next.Encoding())

	text, err := next.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "edited", text.Content)
	assert.Equal(t, "windows-1252", text.Encoding)
}

func TestWithTextPreservesIdentityAndFolders(t *testing.T) {
	doc := newDocument(DocumentInfo{
		Name:    "A.fy",
		Folders: []string{"src", "models"},
		Loader:  StaticText("original"),
	})

	next := doc.WithText("edited")
	assert.Equal(t, doc.ID(), next.ID())
	assert.Equal(t, doc.Name(), next.Name())
	assert.Equal(t, doc.Folders(), next.Folders())
	assert.True(t, next.Version().NewerThan(doc.Version()))
}
