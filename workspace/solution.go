package workspace

// Solution is an immutable snapshot of a set of projects. Every mutation
// returns a new Solution sharing all untouched substructure; an untouched
// Project pointer is reference-equal across a document-only edit, so
// consumers can cheaply detect no-op scopes.
//
// The solution version tracks the project set only. It never moves because a
// document's text or a project's internal shape changed.
type Solution struct {
	id      SolutionID
	version VersionStamp

	// order preserves project insertion order; projects indexes by id.
	order    []ProjectID
	projects map[ProjectID]*Project
}

// NewSolution constructs an empty solution snapshot.
func NewSolution(id SolutionID) *Solution {
	return &Solution{
		id:       id,
		version:  NewVersionStamp(),
		projects: make(map[ProjectID]*Project),
	}
}

// ID returns the solution identity, stable across snapshots.
func (s *Solution) ID() SolutionID { return s.id }

// Version returns the solution-level version of this snapshot.
func (s *Solution) Version() VersionStamp { return s.version }

// Projects returns the projects in insertion order.
func (s *Solution) Projects() []*Project {
	out := make([]*Project, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.projects[id])
	}
	return out
}

// Project returns the project with the given identity.
func (s *Solution) Project(id ProjectID) (*Project, bool) {
	p, ok := s.projects[id]
	return p, ok
}

// ContainsProject reports whether the project is part of this snapshot.
func (s *Solution) ContainsProject(id ProjectID) bool {
	_, ok := s.projects[id]
	return ok
}

// Document returns the document with the given identity, looked up through
// its owning project.
func (s *Solution) Document(id DocumentID) (*Document, bool) {
	p, ok := s.projects[id.ProjectID]
	if !ok {
		return nil, false
	}
	return p.Document(id)
}

// clone copies the solution shell and its project map; project pointers are
// shared with the receiver.
func (s *Solution) clone() *Solution {
	next := &Solution{
		id:       s.id,
		version:  s.version,
		order:    s.order,
		projects: make(map[ProjectID]*Project, len(s.projects)),
	}
	for id, p := range s.projects {
		next.projects[id] = p
	}
	return next
}

// withProject swaps one project snapshot without touching the project set or
// the solution version.
func (s *Solution) withProject(p *Project) *Solution {
	if current, ok := s.projects[p.id]; !ok || current == p {
		return s
	}
	next := s.clone()
	next.projects[p.id] = p
	return next
}

// AddProject returns a snapshot containing the given project. The solution
// version moves because the project set changed.
func (s *Solution) AddProject(p *Project) *Solution {
	if s.ContainsProject(p.id) {
		return s
	}
	next := s.clone()
	next.order = append(append([]ProjectID(nil), s.order...), p.id)
	next.projects[p.id] = p
	next.version = s.version.GetNewerVersion()
	return next
}

// RemoveProject returns a snapshot without the given project. Other projects'
// references to it are left alone; reconciliation is a loader concern.
func (s *Solution) RemoveProject(id ProjectID) *Solution {
	if !s.ContainsProject(id) {
		return s
	}
	next := s.clone()
	order := make([]ProjectID, 0, len(s.order)-1)
	for _, existing := range s.order {
		if existing != id {
			order = append(order, existing)
		}
	}
	next.order = order
	delete(next.projects, id)
	next.version = s.version.GetNewerVersion()
	return next
}

// WithDocumentText returns a snapshot in which the identified document holds
// the given content under a strictly newer text version. Project and solution
// versions are untouched; the owning project's latest-document-version moves.
func (s *Solution) WithDocumentText(id DocumentID, content string) *Solution {
	p, ok := s.projects[id.ProjectID]
	if !ok {
		return s
	}
	doc, ok := p.Document(id)
	if !ok {
		return s
	}
	return s.withProject(p.withDocumentText(doc.WithText(content)))
}

// AddDocument returns a snapshot with a new source document in the given
// project, plus the identity assigned to it.
func (s *Solution) AddDocument(projectID ProjectID, info DocumentInfo) (*Solution, DocumentID) {
	return s.addDocument(projectID, info, false)
}

// AddAdditionalDocument returns a snapshot with a new non-source document in
// the given project, plus the identity assigned to it.
func (s *Solution) AddAdditionalDocument(projectID ProjectID, info DocumentInfo) (*Solution, DocumentID) {
	return s.addDocument(projectID, info, true)
}

func (s *Solution) addDocument(projectID ProjectID, info DocumentInfo, additional bool) (*Solution, DocumentID) {
	p, ok := s.projects[projectID]
	if !ok {
		return s, DocumentID{}
	}
	if info.ID.IsZero() {
		info.ID = NewDocumentID(projectID)
	}
	return s.withProject(p.withDocumentAdded(newDocument(info), additional)), info.ID
}

// RemoveDocument returns a snapshot without the identified document, source
// or additional.
func (s *Solution) RemoveDocument(id DocumentID) *Solution {
	p, ok := s.projects[id.ProjectID]
	if !ok {
		return s
	}
	next, removed := p.withDocumentRemoved(id)
	if removed == nil {
		return s
	}
	return s.withProject(next)
}

// WithCompileOptions returns a snapshot with the project's compilation
// settings replaced. A settings change bumps the project version only.
func (s *Solution) WithCompileOptions(projectID ProjectID, options CompileOptions) *Solution {
	p, ok := s.projects[projectID]
	if !ok {
		return s
	}
	return s.withProject(p.withOptions(options))
}

// AddMetadataReference returns a snapshot with the reference added to the
// project, deduplicated by target.
func (s *Solution) AddMetadataReference(projectID ProjectID, ref MetadataReference) *Solution {
	p, ok := s.projects[projectID]
	if !ok {
		return s
	}
	return s.withProject(p.withMetadataReferenceAdded(ref))
}

// RemoveMetadataReference returns a snapshot with the reference at the given
// path removed from the project.
func (s *Solution) RemoveMetadataReference(projectID ProjectID, path string) *Solution {
	p, ok := s.projects[projectID]
	if !ok {
		return s
	}
	return s.withProject(p.withMetadataReferenceRemoved(path))
}

// AddAnalyzerReference returns a snapshot with the analyzer reference added
// to the project.
func (s *Solution) AddAnalyzerReference(projectID ProjectID, ref AnalyzerReference) *Solution {
	p, ok := s.projects[projectID]
	if !ok {
		return s
	}
	return s.withProject(p.withAnalyzerReferenceAdded(ref))
}

// AddProjectReference returns a snapshot with a direct reference from one
// project to another, deduplicated by target.
func (s *Solution) AddProjectReference(projectID ProjectID, ref ProjectReference) *Solution {
	p, ok := s.projects[projectID]
	if !ok {
		return s
	}
	return s.withProject(p.withProjectReferenceAdded(ref))
}

// RemoveProjectReference returns a snapshot with the direct reference to
// target removed from the project.
func (s *Solution) RemoveProjectReference(projectID, target ProjectID) *Solution {
	p, ok := s.projects[projectID]
	if !ok {
		return s
	}
	return s.withProject(p.withProjectReferenceRemoved(target))
}
