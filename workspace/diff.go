package workspace

// ChangeKind classifies one edit in the diff between two solution snapshots.
// The host's capability table is keyed by these.
type ChangeKind int

const (
	ChangeAddProject ChangeKind = iota
	ChangeRemoveProject
	ChangeAddDocument
	ChangeRemoveDocument
	ChangeDocumentText
	ChangeAddAdditionalDocument
	ChangeRemoveAdditionalDocument
	ChangeAddMetadataReference
	ChangeRemoveMetadataReference
	ChangeAddProjectReference
	ChangeRemoveProjectReference
	ChangeAddAnalyzerReference
	ChangeRemoveAnalyzerReference
	ChangeCompileOptions
)

var changeKindNames = map[ChangeKind]string{
	ChangeAddProject:               "AddProject",
	ChangeRemoveProject:            "RemoveProject",
	ChangeAddDocument:              "AddDocument",
	ChangeRemoveDocument:           "RemoveDocument",
	ChangeDocumentText:             "ChangeDocumentText",
	ChangeAddAdditionalDocument:    "AddAdditionalDocument",
	ChangeRemoveAdditionalDocument: "RemoveAdditionalDocument",
	ChangeAddMetadataReference:     "AddMetadataReference",
	ChangeRemoveMetadataReference:  "RemoveMetadataReference",
	ChangeAddProjectReference:      "AddProjectReference",
	ChangeRemoveProjectReference:   "RemoveProjectReference",
	ChangeAddAnalyzerReference:     "AddAnalyzerReference",
	ChangeRemoveAnalyzerReference:  "RemoveAnalyzerReference",
	ChangeCompileOptions:           "ChangeCompileOptions",
}

func (k ChangeKind) String() string {
	if name, ok := changeKindNames[k]; ok {
		return name
	}
	return "UnknownChangeKind"
}

// ChangeKindFromName maps a capability name back to its kind, for
// configuration files that disable kinds by name.
func ChangeKindFromName(name string) (ChangeKind, bool) {
	for kind, n := range changeKindNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

// Capabilities is the host-declared table of change kinds TryApplyChanges may
// perform. The zero value allows everything.
type Capabilities struct {
	disabled map[ChangeKind]bool
}

// DefaultCapabilities allows every change kind.
func DefaultCapabilities() Capabilities {
	return Capabilities{}
}

// Disable returns a table with the given kinds rejected.
func (c Capabilities) Disable(kinds ...ChangeKind) Capabilities {
	disabled := make(map[ChangeKind]bool, len(c.disabled)+len(kinds))
	for k := range c.disabled {
		disabled[k] = true
	}
	for _, k := range kinds {
		disabled[k] = true
	}
	return Capabilities{disabled: disabled}
}

// CanApply reports whether the host permits the given change kind.
func (c Capabilities) CanApply(kind ChangeKind) bool {
	return !c.disabled[kind]
}

// DocumentChange pairs the old and new snapshots of one changed document.
// Old is nil for additions; New is nil for removals.
type DocumentChange struct {
	Old *Document
	New *Document
}

// ProjectDiff describes the changes within one project present in both
// snapshots.
type ProjectDiff struct {
	ProjectID ProjectID

	AddedDocuments      []*Document
	RemovedDocuments    []*Document
	ChangedDocuments    []DocumentChange
	AddedAdditional     []*Document
	RemovedAdditional   []*Document
	ChangedAdditional   []DocumentChange
	AddedMetadataRefs   []MetadataReference
	RemovedMetadataRefs []MetadataReference
	AddedProjectRefs    []ProjectReference
	RemovedProjectRefs  []ProjectReference
	AddedAnalyzerRefs   []AnalyzerReference
	RemovedAnalyzerRefs []AnalyzerReference
	OptionsChanged      bool
}

// SolutionDiff is the difference between two snapshots of the same solution,
// at the granularity the capability table understands.
type SolutionDiff struct {
	AddedProjects   []*Project
	RemovedProjects []*Project
	ProjectDiffs    []ProjectDiff
}

// Diff computes the changes needed to get from old to new. Untouched projects
// are skipped by pointer comparison, which is what structural sharing buys.
func Diff(old, new *Solution) SolutionDiff {
	var diff SolutionDiff
	for _, id := range new.order {
		if !old.ContainsProject(id) {
			diff.AddedProjects = append(diff.AddedProjects, new.projects[id])
		}
	}
	for _, id := range old.order {
		if !new.ContainsProject(id) {
			diff.RemovedProjects = append(diff.RemovedProjects, old.projects[id])
		}
	}
	for _, id := range old.order {
		oldProject, newProject := old.projects[id], new.projects[id]
		if newProject == nil || oldProject == newProject {
			continue
		}
		pd := diffProject(oldProject, newProject)
		if !pd.empty() {
			diff.ProjectDiffs = append(diff.ProjectDiffs, pd)
		}
	}
	return diff
}

func diffProject(old, new *Project) ProjectDiff {
	pd := ProjectDiff{ProjectID: old.id}
	pd.AddedDocuments, pd.RemovedDocuments, pd.ChangedDocuments = diffDocuments(old.documents, new.documents)
	pd.AddedAdditional, pd.RemovedAdditional, pd.ChangedAdditional = diffDocuments(old.additional, new.additional)

	oldMeta := make(map[string]bool, len(old.metadataRefs))
	for _, r := range old.metadataRefs {
		oldMeta[r.Path] = true
	}
	newMeta := make(map[string]bool, len(new.metadataRefs))
	for _, r := range new.metadataRefs {
		newMeta[r.Path] = true
		if !oldMeta[r.Path] {
			pd.AddedMetadataRefs = append(pd.AddedMetadataRefs, r)
		}
	}
	for _, r := range old.metadataRefs {
		if !newMeta[r.Path] {
			pd.RemovedMetadataRefs = append(pd.RemovedMetadataRefs, r)
		}
	}

	oldRefs := make(map[ProjectID]bool, len(old.projectRefs))
	for _, r := range old.projectRefs {
		oldRefs[r.ProjectID] = true
	}
	newRefs := make(map[ProjectID]bool, len(new.projectRefs))
	for _, r := range new.projectRefs {
		newRefs[r.ProjectID] = true
		if !oldRefs[r.ProjectID] {
			pd.AddedProjectRefs = append(pd.AddedProjectRefs, r)
		}
	}
	for _, r := range old.projectRefs {
		if !newRefs[r.ProjectID] {
			pd.RemovedProjectRefs = append(pd.RemovedProjectRefs, r)
		}
	}

	oldAnalyzers := make(map[string]bool, len(old.analyzerRefs))
	for _, r := range old.analyzerRefs {
		oldAnalyzers[r.Path] = true
	}
	newAnalyzers := make(map[string]bool, len(new.analyzerRefs))
	for _, r := range new.analyzerRefs {
		newAnalyzers[r.Path] = true
		if !oldAnalyzers[r.Path] {
			pd.AddedAnalyzerRefs = append(pd.AddedAnalyzerRefs, r)
		}
	}
	for _, r := range old.analyzerRefs {
		if !newAnalyzers[r.Path] {
			pd.RemovedAnalyzerRefs = append(pd.RemovedAnalyzerRefs, r)
		}
	}

	pd.OptionsChanged = !old.options.equal(new.options)
	return pd
}

func diffDocuments(old, new []*Document) (added, removed []*Document, changed []DocumentChange) {
	oldByID := make(map[DocumentID]*Document, len(old))
	for _, d := range old {
		oldByID[d.id] = d
	}
	newByID := make(map[DocumentID]*Document, len(new))
	for _, d := range new {
		newByID[d.id] = d
		oldDoc, ok := oldByID[d.id]
		switch {
		case !ok:
			added = append(added, d)
		case oldDoc != d && d.version.NewerThan(oldDoc.version):
			changed = append(changed, DocumentChange{Old: oldDoc, New: d})
		}
	}
	for _, d := range old {
		if _, ok := newByID[d.id]; !ok {
			removed = append(removed, d)
		}
	}
	return added, removed, changed
}

func (pd ProjectDiff) empty() bool {
	return len(pd.AddedDocuments) == 0 && len(pd.RemovedDocuments) == 0 &&
		len(pd.ChangedDocuments) == 0 && len(pd.AddedAdditional) == 0 &&
		len(pd.RemovedAdditional) == 0 && len(pd.ChangedAdditional) == 0 &&
		len(pd.AddedMetadataRefs) == 0 && len(pd.RemovedMetadataRefs) == 0 &&
		len(pd.AddedProjectRefs) == 0 && len(pd.RemovedProjectRefs) == 0 &&
		len(pd.AddedAnalyzerRefs) == 0 && len(pd.RemovedAnalyzerRefs) == 0 &&
		!pd.OptionsChanged
}

// IsEmpty reports whether the two snapshots are observably identical.
func (d SolutionDiff) IsEmpty() bool {
	return len(d.AddedProjects) == 0 && len(d.RemovedProjects) == 0 && len(d.ProjectDiffs) == 0
}

// ChangeKinds returns the distinct kinds present in the diff, for the
// capability check that runs before any I/O.
func (d SolutionDiff) ChangeKinds() []ChangeKind {
	seen := make(map[ChangeKind]bool)
	var kinds []ChangeKind
	add := func(k ChangeKind) {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	if len(d.AddedProjects) > 0 {
		add(ChangeAddProject)
	}
	if len(d.RemovedProjects) > 0 {
		add(ChangeRemoveProject)
	}
	for _, pd := range d.ProjectDiffs {
		if len(pd.AddedDocuments) > 0 {
			add(ChangeAddDocument)
		}
		if len(pd.RemovedDocuments) > 0 {
			add(ChangeRemoveDocument)
		}
		if len(pd.ChangedDocuments) > 0 || len(pd.ChangedAdditional) > 0 {
			add(ChangeDocumentText)
		}
		if len(pd.AddedAdditional) > 0 {
			add(ChangeAddAdditionalDocument)
		}
		if len(pd.RemovedAdditional) > 0 {
			add(ChangeRemoveAdditionalDocument)
		}
		if len(pd.AddedMetadataRefs) > 0 {
			add(ChangeAddMetadataReference)
		}
		if len(pd.RemovedMetadataRefs) > 0 {
			add(ChangeRemoveMetadataReference)
		}
		if len(pd.AddedProjectRefs) > 0 {
			add(ChangeAddProjectReference)
		}
		if len(pd.RemovedProjectRefs) > 0 {
			add(ChangeRemoveProjectReference)
		}
		if len(pd.AddedAnalyzerRefs) > 0 {
			add(ChangeAddAnalyzerReference)
		}
		if len(pd.RemovedAnalyzerRefs) > 0 {
			add(ChangeRemoveAnalyzerReference)
		}
		if pd.OptionsChanged {
			add(ChangeCompileOptions)
		}
	}
	return kinds
}

// dominantEvent picks the single event kind summarizing the whole apply call.
// Project membership wins over document membership, which wins over text.
func (d SolutionDiff) dominantEvent() (EventKind, ProjectID, DocumentID) {
	switch {
	case len(d.AddedProjects) > 0:
		return ProjectAdded, d.AddedProjects[0].id, DocumentID{}
	case len(d.RemovedProjects) > 0:
		return ProjectRemoved, d.RemovedProjects[0].id, DocumentID{}
	}
	kind, projectID, docID := SolutionChanged, ProjectID{}, DocumentID{}
	rank := func(k EventKind) int {
		switch k {
		case DocumentAdded, DocumentRemoved:
			return 2
		case DocumentChanged:
			return 1
		default:
			return 0
		}
	}
	consider := func(k EventKind, p ProjectID, doc DocumentID) {
		if rank(k) > rank(kind) {
			kind, projectID, docID = k, p, doc
		}
	}
	for _, pd := range d.ProjectDiffs {
		if len(pd.AddedDocuments) > 0 {
			consider(DocumentAdded, pd.ProjectID, pd.AddedDocuments[0].id)
		}
		if len(pd.AddedAdditional) > 0 {
			consider(DocumentAdded, pd.ProjectID, pd.AddedAdditional[0].id)
		}
		if len(pd.RemovedDocuments) > 0 {
			consider(DocumentRemoved, pd.ProjectID, pd.RemovedDocuments[0].id)
		}
		if len(pd.RemovedAdditional) > 0 {
			consider(DocumentRemoved, pd.ProjectID, pd.RemovedAdditional[0].id)
		}
		if len(pd.ChangedDocuments) > 0 {
			consider(DocumentChanged, pd.ProjectID, pd.ChangedDocuments[0].New.id)
		}
		if len(pd.ChangedAdditional) > 0 {
			consider(DocumentChanged, pd.ProjectID, pd.ChangedAdditional[0].New.id)
		}
		if kind == SolutionChanged {
			projectID = pd.ProjectID
		}
	}
	return kind, projectID, docID
}
