package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSolution builds a solution with one project holding a single
// in-memory document "A.fy".
func newTestSolution(t *testing.T) (*Solution, *Project, *Document) {
	t.Helper()
	project := NewProject(ProjectInfo{
		Name:     "app",
		Language: "foundry",
		Documents: []DocumentInfo{
			{Name: "A.fy", Loader: StaticText("class C{}")},
		},
	})
	solution := NewSolution(NewSolutionID()).AddProject(project)
	doc := project.Documents()[0]
	return solution, project, doc
}

func TestWithDocumentTextVersions(t *testing.T) {
	solution, project, doc := newTestSolution(t)
	ctx := context.Background()

	next := solution.WithDocumentText(doc.ID(), "class C{} // x")
	require.NotSame(t, solution, next)

	newProject, ok := next.Project(project.ID())
	require.True(t, ok)
	newDoc, ok := next.Document(doc.ID())
	require.True(t, ok)

	// The document version moves; project and solution versions do not.
	assert.True(t, newDoc.Version().NewerThan(doc.Version()))
	assert.True(t, newProject.Version().Equal(project.Version()))
	assert.True(t, next.Version().Equal(solution.Version()))

	// The latest-document-version strictly increases.
	assert.True(t, newProject.LatestDocumentVersion().NewerThan(project.LatestDocumentVersion()))

	// The old snapshot still holds the original text.
	oldText, err := doc.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "class C{}", oldText.Content)

	newText, err := newDoc.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "class C{} // x", newText.Content)
}

func TestWithDocumentTextSharesUntouchedProjects(t *testing.T) {
	_, projectA, docA := newTestSolution(t)
	projectB := NewProject(ProjectInfo{
		Name:     "lib",
		Language: "foundry",
		Documents: []DocumentInfo{
			{Name: "B.fy", Loader: StaticText("class B{}")},
		},
	})
	solution := NewSolution(NewSolutionID()).AddProject(projectA).AddProject(projectB)

	next := solution.WithDocumentText(docA.ID(), "class C{} // edited")

	// The untouched project is reference-equal across the edit.
	gotB, ok := next.Project(projectB.ID())
	require.True(t, ok)
	assert.Same(t, projectB, gotB)

	gotA, ok := next.Project(projectA.ID())
	require.True(t, ok)
	assert.NotSame(t, projectA, gotA)
}

func TestSequenceOfTextEditsKeepsProjectAndSolutionVersions(t *testing.T) {
	solution, project, doc := newTestSolution(t)

	current := solution
	lastDocVersion := doc.Version()
	lastLatest := project.LatestDocumentVersion()
	for i := 0; i < 5; i++ {
		current = current.WithDocumentText(doc.ID(), "edit")
		d, ok := current.Document(doc.ID())
		require.True(t, ok)
		p, ok := current.Project(project.ID())
		require.True(t, ok)

		assert.True(t, d.Version().NewerThan(lastDocVersion))
		assert.True(t, p.LatestDocumentVersion().NewerThan(lastLatest))
		assert.True(t, p.Version().Equal(project.Version()))
		assert.True(t, current.Version().Equal(solution.Version()))
		lastDocVersion = d.Version()
		lastLatest = p.LatestDocumentVersion()
	}
}

func TestAddAndRemoveDocumentRestoresDocumentSet(t *testing.T) {
	solution, project, doc := newTestSolution(t)

	withDoc, newID := solution.AddDocument(project.ID(), DocumentInfo{
		Name:   "B.fy",
		Loader: StaticText("class B{}"),
	})
	require.False(t, newID.IsZero())
	p, _ := withDoc.Project(project.ID())
	require.Len(t, p.Documents(), 2)
	assert.True(t, p.Version().NewerThan(project.Version()))

	restored := withDoc.RemoveDocument(newID)
	p, _ = restored.Project(project.ID())
	require.Len(t, p.Documents(), 1)
	assert.Equal(t, doc.ID(), p.Documents()[0].ID())

	// Solution version is untouched by document membership changes.
	assert.True(t, restored.Version().Equal(solution.Version()))
}

func TestProjectLevelEditsBumpProjectVersionOnly(t *testing.T) {
	solution, project, _ := newTestSolution(t)

	withRef := solution.AddMetadataReference(project.ID(), MetadataReference{Path: "/lib/std.flib"})
	p, _ := withRef.Project(project.ID())
	assert.True(t, p.Version().NewerThan(project.Version()))
	assert.True(t, withRef.Version().Equal(solution.Version()))

	withOptions := withRef.WithCompileOptions(project.ID(), CompileOptions{OutputKind: "executable"})
	p2, _ := withOptions.Project(project.ID())
	assert.True(t, p2.Version().NewerThan(p.Version()))
	assert.True(t, withOptions.Version().Equal(solution.Version()))
}

func TestAddRemoveProjectBumpsSolutionVersion(t *testing.T) {
	solution, project, _ := newTestSolution(t)

	other := NewProject(ProjectInfo{Name: "lib", Language: "foundry"})
	added := solution.AddProject(other)
	assert.True(t, added.Version().NewerThan(solution.Version()))
	assert.Len(t, added.Projects(), 2)

	removed := added.RemoveProject(other.ID())
	assert.True(t, removed.Version().NewerThan(added.Version()))
	assert.Len(t, removed.Projects(), 1)

	// The surviving project is shared, not rebuilt.
	p, ok := removed.Project(project.ID())
	require.True(t, ok)
	assert.Same(t, project, p)
}

func TestMetadataReferencesDedupeByTarget(t *testing.T) {
	solution, project, _ := newTestSolution(t)

	withRef := solution.AddMetadataReference(project.ID(), MetadataReference{Path: "/lib/std.flib"})
	again := withRef.AddMetadataReference(project.ID(), MetadataReference{Path: "/lib/std.flib", Aliases: []string{"std"}})

	// A duplicate distinguishable only by alias is a no-op snapshot-wise.
	assert.Same(t, withRef, again)
	p, _ := again.Project(project.ID())
	assert.Len(t, p.MetadataReferences(), 1)
}

func TestProjectReferencesDedupeByTarget(t *testing.T) {
	solution, project, _ := newTestSolution(t)
	other := NewProject(ProjectInfo{Name: "lib", Language: "foundry"})
	solution = solution.AddProject(other)

	withRef := solution.AddProjectReference(project.ID(), ProjectReference{ProjectID: other.ID()})
	again := withRef.AddProjectReference(project.ID(), ProjectReference{ProjectID: other.ID(), Aliases: []string{"lib"}})

	assert.Same(t, withRef, again)
	p, _ := again.Project(project.ID())
	assert.Len(t, p.ProjectReferences(), 1)
}

func TestWithCompileOptionsNoChangeIsNoOp(t *testing.T) {
	solution, project, _ := newTestSolution(t)

	same := solution.WithCompileOptions(project.ID(), project.Options())
	assert.Same(t, solution, same)
}

func TestAdditionalDocuments(t *testing.T) {
	solution, project, _ := newTestSolution(t)

	withAdd, id := solution.AddAdditionalDocument(project.ID(), DocumentInfo{
		Name:   "README.md",
		Loader: StaticText("# readme"),
	})
	p, _ := withAdd.Project(project.ID())
	require.Len(t, p.AdditionalDocuments(), 1)
	assert.True(t, p.Version().NewerThan(project.Version()))

	removed := withAdd.RemoveDocument(id)
	p, _ = removed.Project(project.ID())
	assert.Empty(t, p.AdditionalDocuments())
}

func TestDocumentOrderIsPreserved(t *testing.T) {
	// Some loaders emit duplicate names; order is the only distinguisher.
	project := NewProject(ProjectInfo{
		Name:     "app",
		Language: "foundry",
		Documents: []DocumentInfo{
			{Name: "A.fy", Loader: StaticText("first")},
			{Name: "A.fy", Loader: StaticText("second")},
			{Name: "B.fy", Loader: StaticText("third")},
		},
	})
	docs := project.Documents()
	require.Len(t, docs, 3)
	assert.Equal(t, "A.fy", docs[0].Name())
	assert.Equal(t, "A.fy", docs[1].Name())
	assert.Equal(t, "B.fy", docs[2].Name())
	assert.NotEqual(t, docs[0].ID(), docs[1].ID())
}

func TestDocumentAccessorsDoNotAliasSnapshotStorage(t *testing.T) {
	// Three documents leave spare capacity in the internal slice; appending
	// through the accessors must never write into the snapshot's backing
	// array.
	project := NewProject(ProjectInfo{
		Name:     "app",
		Language: "foundry",
		Documents: []DocumentInfo{
			{Name: "A.fy", Loader: StaticText("a")},
			{Name: "B.fy", Loader: StaticText("b")},
			{Name: "C.fy", Loader: StaticText("c")},
		},
		AdditionalDocuments: []DocumentInfo{
			{Name: "README.md", Loader: StaticText("readme")},
		},
	})

	combined := append(project.Documents(), project.AdditionalDocuments()...)
	require.Len(t, combined, 4)
	assert.Equal(t, "README.md", combined[3].Name())

	// A second combined append must not clobber the first one's tail.
	other := append(project.Documents(), combined[0])
	assert.Equal(t, "A.fy", other[3].Name())
	assert.Equal(t, "README.md", combined[3].Name())
	assert.Len(t, project.Documents(), 3)
}

func TestLatestDocumentVersionAdvancesOnSameInstantEdit(t *testing.T) {
	project := NewProject(ProjectInfo{
		Name:     "app",
		Language: "foundry",
		Documents: []DocumentInfo{
			{Name: "A.fy", Loader: StaticText("a")},
			{Name: "B.fy", Loader: StaticText("b")},
		},
	})

	// Simulate an edit stamped within the same clock tick as the current
	// latest-document-version, as happens when two documents are edited in
	// one instant.
	edited := project.Documents()[1].WithText("edited")
	edited.version = project.LatestDocumentVersion()

	next := project.withDocumentText(edited)
	require.NotSame(t, project, next)
	assert.True(t, next.LatestDocumentVersion().NewerThan(project.LatestDocumentVersion()))
}

func TestUpgradeMetadataReference(t *testing.T) {
	dependent := NewProject(ProjectInfo{
		Name:     "app",
		Language: "foundry",
		MetadataReferences: []MetadataReference{
			{Path: "/out/lib.flib"},
		},
	})
	target := NewProject(ProjectInfo{Name: "lib", Language: "foundry", OutputPath: "/out/lib.flib"})

	upgraded := dependent.upgradeMetadataReference("/out/lib.flib", target.ID())
	require.NotSame(t, dependent, upgraded)

	assert.Equal(t, dependent.ID(), upgraded.ID())
	assert.Empty(t, upgraded.MetadataReferences())
	require.Len(t, upgraded.ProjectReferences(), 1)
	assert.Equal(t, target.ID(), upgraded.ProjectReferences()[0].ProjectID)
	assert.True(t, upgraded.Version().NewerThan(dependent.Version()))

	// No matching metadata reference means no new snapshot.
	assert.Same(t, dependent, dependent.upgradeMetadataReference("/elsewhere.flib", target.ID()))
}
