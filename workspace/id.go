package workspace

import (
	"fmt"

	"github.com/google/uuid"
)

// SolutionID identifies a solution across snapshots.
type SolutionID struct {
	id uuid.UUID
}

// NewSolutionID allocates a fresh solution identity.
func NewSolutionID() SolutionID {
	return SolutionID{id: uuid.New()}
}

func (s SolutionID) String() string { return "solution(" + s.id.String() + ")" }

// ProjectID identifies the same logical project across snapshots and edits.
type ProjectID struct {
	id uuid.UUID
}

// NewProjectID allocates a fresh project identity.
func NewProjectID() ProjectID {
	return ProjectID{id: uuid.New()}
}

// IsZero reports whether the identity is unset.
func (p ProjectID) IsZero() bool { return p.id == uuid.Nil }

func (p ProjectID) String() string { return "project(" + p.id.String() + ")" }

// DocumentID identifies the same logical document across edits. It embeds the
// identity of the owning project, so a document identity is meaningless
// outside its project.
type DocumentID struct {
	// ProjectID is the identity of the owning project.
	ProjectID ProjectID

	id uuid.UUID
}

// NewDocumentID allocates a fresh document identity within a project.
func NewDocumentID(projectID ProjectID) DocumentID {
	return DocumentID{ProjectID: projectID, id: uuid.New()}
}

// IsZero reports whether the identity is unset.
func (d DocumentID) IsZero() bool { return d.id == uuid.Nil }

func (d DocumentID) String() string {
	return fmt.Sprintf("document(%s in %s)", d.id, d.ProjectID.id)
}
