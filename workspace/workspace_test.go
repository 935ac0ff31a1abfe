package workspace

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter records writes and removals, optionally failing a given path.
type fakeWriter struct {
	writes   map[string]string
	removals []string
	failPath string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{writes: make(map[string]string)}
}

func (f *fakeWriter) WriteText(path string, text SourceText) error {
	if path == f.failPath {
		return errors.New("disk full")
	}
	f.writes[path] = text.Content
	return nil
}

func (f *fakeWriter) Remove(path string) error {
	if path == f.failPath {
		return errors.New("permission denied")
	}
	f.removals = append(f.removals, path)
	return nil
}

func newTestWorkspace(t *testing.T, opts Options) (*Workspace, *Project, *Document) {
	t.Helper()
	ws := New(opts)
	project := NewProject(ProjectInfo{
		Name:     "app",
		Language: "foundry",
		Documents: []DocumentInfo{
			{Name: "A.fy", FilePath: "/src/A.fy", Loader: StaticText("class C{}")},
		},
	})
	_, err := ws.AddProject(project)
	require.NoError(t, err)
	doc := project.Documents()[0]
	return ws, project, doc
}

func TestTryApplyChangesDocumentText(t *testing.T) {
	writer := newFakeWriter()
	ws, _, doc := newTestWorkspace(t, Options{Writer: writer})

	var events []Event
	ws.Subscribe(func(e Event) { events = append(events, e) })

	old := ws.CurrentSolution()
	candidate := old.WithDocumentText(doc.ID(), "class C{} // x")

	applied, err := ws.TryApplyChanges(context.Background(), candidate)
	require.NoError(t, err)
	assert.True(t, applied)

	// The swap happened and the new text hit the backing store.
	assert.Same(t, candidate, ws.CurrentSolution())
	assert.Equal(t, "class C{} // x", writer.writes["/src/A.fy"])

	// Exactly one event, delivered before the call returned.
	require.Len(t, events, 1)
	assert.Equal(t, DocumentChanged, events[0].Kind)
	assert.Equal(t, doc.ID(), events[0].DocumentID)
	assert.Same(t, old, events[0].OldSolution)
	assert.Same(t, candidate, events[0].NewSolution)
}

func TestTryApplyChangesCollapsesToOneEvent(t *testing.T) {
	writer := newFakeWriter()
	ws, project, doc := newTestWorkspace(t, Options{Writer: writer})

	solution, id := ws.CurrentSolution().AddDocument(project.ID(), DocumentInfo{
		Name: "B.fy", FilePath: "/src/B.fy", Loader: StaticText("class B{}"),
	})
	_ = id
	candidate := solution.WithDocumentText(doc.ID(), "class C{} // y")

	var events []Event
	ws.Subscribe(func(e Event) { events = append(events, e) })

	applied, err := ws.TryApplyChanges(context.Background(), candidate)
	require.NoError(t, err)
	assert.True(t, applied)

	// One call, one event; document membership dominates text changes.
	require.Len(t, events, 1)
	assert.Equal(t, DocumentAdded, events[0].Kind)
}

func TestTryApplyChangesUnsupportedKind(t *testing.T) {
	caps := DefaultCapabilities().Disable(ChangeAddAdditionalDocument)
	ws, project, _ := newTestWorkspace(t, Options{Capabilities: caps, Writer: newFakeWriter()})

	require.False(t, ws.CanApplyChange(ChangeAddAdditionalDocument))

	old := ws.CurrentSolution()
	candidate, _ := old.AddAdditionalDocument(project.ID(), DocumentInfo{
		Name: "README.md", Loader: StaticText("# readme"),
	})

	var events int
	ws.Subscribe(func(Event) { events++ })

	applied, err := ws.TryApplyChanges(context.Background(), candidate)
	assert.False(t, applied)

	var unsupported *UnsupportedChangeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ChangeAddAdditionalDocument, unsupported.Kind)

	// No partial application: the current solution and subscribers saw
	// nothing.
	assert.Same(t, old, ws.CurrentSolution())
	assert.Zero(t, events)
}

func TestTryApplyChangesCapabilityCheckBeforeIO(t *testing.T) {
	caps := DefaultCapabilities().Disable(ChangeAddDocument)
	writer := newFakeWriter()
	ws, project, doc := newTestWorkspace(t, Options{Capabilities: caps, Writer: writer})

	// Candidate mixes an allowed text change with a disallowed add.
	candidate := ws.CurrentSolution().WithDocumentText(doc.ID(), "class C{} // z")
	candidate, _ = candidate.AddDocument(project.ID(), DocumentInfo{
		Name: "B.fy", FilePath: "/src/B.fy", Loader: StaticText("class B{}"),
	})

	applied, err := ws.TryApplyChanges(context.Background(), candidate)
	assert.False(t, applied)
	var unsupported *UnsupportedChangeError
	require.ErrorAs(t, err, &unsupported)

	// The rejection happened before any write.
	assert.Empty(t, writer.writes)
}

func TestTryApplyChangesWriteFailureKeepsCurrentSolution(t *testing.T) {
	writer := newFakeWriter()
	writer.failPath = "/src/A.fy"
	ws, _, doc := newTestWorkspace(t, Options{Writer: writer})

	old := ws.CurrentSolution()
	candidate := old.WithDocumentText(doc.ID(), "class C{} // x")

	var events int
	ws.Subscribe(func(Event) { events++ })

	applied, err := ws.TryApplyChanges(context.Background(), candidate)
	assert.False(t, applied)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "/src/A.fy", ioErr.Path)

	assert.Same(t, old, ws.CurrentSolution())
	assert.Zero(t, events)
}

func TestTryApplyChangesRemoveDocumentDeletesBackingFile(t *testing.T) {
	writer := newFakeWriter()
	ws, _, doc := newTestWorkspace(t, Options{Writer: writer})

	candidate := ws.CurrentSolution().RemoveDocument(doc.ID())
	applied, err := ws.TryApplyChanges(context.Background(), candidate)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []string{"/src/A.fy"}, writer.removals)
}

func TestTryApplyChangesForeignSolutionRejected(t *testing.T) {
	ws, _, _ := newTestWorkspace(t, Options{Writer: newFakeWriter()})

	foreign := NewSolution(NewSolutionID())
	applied, err := ws.TryApplyChanges(context.Background(), foreign)
	assert.False(t, applied)
	assert.Error(t, err)
}

func TestTryApplyChangesNoChangeSucceeds(t *testing.T) {
	ws, _, _ := newTestWorkspace(t, Options{Writer: newFakeWriter()})

	applied, err := ws.TryApplyChanges(context.Background(), ws.CurrentSolution())
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestSetDocumentTextPublishesDocumentChanged(t *testing.T) {
	ws, _, doc := newTestWorkspace(t, Options{})

	var events []Event
	ws.Subscribe(func(e Event) { events = append(events, e) })

	next, err := ws.SetDocumentText(doc.ID(), "edited externally")
	require.NoError(t, err)
	assert.Same(t, next, ws.CurrentSolution())

	require.Len(t, events, 1)
	assert.Equal(t, DocumentChanged, events[0].Kind)
	assert.Equal(t, doc.ID(), events[0].DocumentID)

	// Host-initiated text changes never write through to disk.
	got, ok := next.Document(doc.ID())
	require.True(t, ok)
	text, err := got.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "edited externally", text.Content)
}

func TestSetDocumentTextUnknownDocument(t *testing.T) {
	ws, _, _ := newTestWorkspace(t, Options{})

	unknown := NewDocumentID(NewProjectID())
	_, err := ws.SetDocumentText(unknown, "x")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestAddProjectUpgradesMetadataReference(t *testing.T) {
	ws := New(Options{})

	dependent := NewProject(ProjectInfo{
		Name:     "app",
		Language: "foundry",
		MetadataReferences: []MetadataReference{
			{Path: "/out/lib.flib"},
		},
	})
	_, err := ws.AddProject(dependent)
	require.NoError(t, err)

	lib := NewProject(ProjectInfo{Name: "lib", Language: "foundry", OutputPath: "/out/lib.flib"})
	_, err = ws.AddProject(lib)
	require.NoError(t, err)

	got, ok := ws.CurrentSolution().Project(dependent.ID())
	require.True(t, ok)

	// Identity preserved, metadata reference replaced by a direct one.
	assert.Equal(t, dependent.ID(), got.ID())
	assert.Empty(t, got.MetadataReferences())
	require.Len(t, got.ProjectReferences(), 1)
	assert.Equal(t, lib.ID(), got.ProjectReferences()[0].ProjectID)
	assert.True(t, got.Version().NewerThan(dependent.Version()))
}

func TestEventOrderingAcrossCalls(t *testing.T) {
	ws, _, doc := newTestWorkspace(t, Options{})

	var order []string
	ws.Subscribe(func(e Event) {
		order = append(order, fmt.Sprintf("%s", e.Kind))
	})

	_, err := ws.SetDocumentText(doc.ID(), "first")
	require.NoError(t, err)
	_, err = ws.RemoveProject(doc.ID().ProjectID)
	require.NoError(t, err)

	assert.Equal(t, []string{"DocumentChanged", "ProjectRemoved"}, order)
}

func TestSubscriberMayMutateWorkspace(t *testing.T) {
	ws, _, doc := newTestWorkspace(t, Options{})

	var kinds []EventKind
	var reentered bool
	ws.Subscribe(func(e Event) {
		kinds = append(kinds, e.Kind)
		if !reentered {
			reentered = true
			_, err := ws.SetDocumentText(doc.ID(), "from handler")
			require.NoError(t, err)
		}
	})

	_, err := ws.SetDocumentText(doc.ID(), "first")
	require.NoError(t, err)

	// Both events delivered, the reentrant one after the current one.
	assert.Equal(t, []EventKind{DocumentChanged, DocumentChanged}, kinds)

	got, ok := ws.CurrentSolution().Document(doc.ID())
	require.True(t, ok)
	text, err := got.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from handler", text.Content)
}

func TestWorkspaceDiagnostics(t *testing.T) {
	ws := New(Options{})
	ws.AddDiagnostics(Diagnostic{
		Severity: DiagnosticSeverityError,
		Message:  BuildFailedPrefix + "reader exploded",
		Path:     "/proj/app.project.toml",
	})

	diags := ws.Diagnostics()
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, BuildFailedPrefix)

	// The returned slice is a copy.
	diags[0].Message = "mutated"
	assert.NotEqual(t, "mutated", ws.Diagnostics()[0].Message)
}

func TestClosedWorkspaceRejectsMutations(t *testing.T) {
	ws, _, doc := newTestWorkspace(t, Options{})
	ws.Close()

	_, err := ws.SetDocumentText(doc.ID(), "x")
	assert.Error(t, err)

	applied, err := ws.TryApplyChanges(context.Background(), ws.CurrentSolution().WithDocumentText(doc.ID(), "y"))
	assert.False(t, applied)
	assert.Error(t, err)
}
