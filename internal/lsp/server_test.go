package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/foundry-lang/foundry/workspace"
)

func TestNewServerStartsWithEmptyWorkspace(t *testing.T) {
	s := NewServer(nil)

	require.NotNil(t, s.Workspace())
	assert.Empty(t, s.Workspace().CurrentSolution().Projects())
	assert.True(t, s.capabilities.TextDocumentSync.(protocol.TextDocumentSyncOptions).OpenClose)
}

func TestDocumentByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fy")
	require.NoError(t, os.WriteFile(path, []byte("class main{}"), 0644))

	s := NewServer(nil)
	info := workspace.ProjectInfo{
		Name:     "app",
		Language: "foundry",
		Documents: []workspace.DocumentInfo{
			{Name: "main.fy", FilePath: path, Loader: workspace.StaticText("class main{}")},
		},
	}
	_, err := s.ws.AddProject(workspace.NewProject(info))
	require.NoError(t, err)

	doc, ok := s.documentByPath(path)
	require.True(t, ok)
	assert.Equal(t, "main.fy", doc.Name())

	_, ok = s.documentByPath(filepath.Join(dir, "other.fy"))
	assert.False(t, ok)
}

func TestDidChangeUpdatesWorkspaceDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fy")

	s := NewServer(nil)
	info := workspace.ProjectInfo{
		Name:     "app",
		Language: "foundry",
		Documents: []workspace.DocumentInfo{
			{Name: "main.fy", FilePath: path, Loader: workspace.StaticText("old")},
		},
	}
	_, err := s.ws.AddProject(workspace.NewProject(info))
	require.NoError(t, err)

	var events []workspace.Event
	s.ws.Subscribe(func(e workspace.Event) { events = append(events, e) })

	doc, ok := s.documentByPath(path)
	require.True(t, ok)

	_, err = s.ws.SetDocumentText(doc.ID(), "new")
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, workspace.DocumentChanged, events[0].Kind)
	assert.Equal(t, doc.ID(), events[0].DocumentID)

	updated, ok := s.documentByPath(path)
	require.True(t, ok)
	text, err := updated.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", text.Content)
}

func TestConvertSeverity(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityError, convertSeverity(workspace.DiagnosticSeverityError))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, convertSeverity(workspace.DiagnosticSeverityWarning))
	assert.Equal(t, protocol.DiagnosticSeverityInformation, convertSeverity(workspace.DiagnosticSeverityInfo))
	assert.Equal(t, protocol.DiagnosticSeverityError, convertSeverity(workspace.DiagnosticSeverity(99)))
}
