package workspace

// Project is an immutable snapshot of one project in a solution.
//
// The project version tracks project-level shape: options, references, and
// document membership. It never moves because a contained document's text
// changed; that is what the latest-document-version is for.
type Project struct {
	id         ProjectID
	name       string
	language   string
	filePath   string
	outputPath string
	options    CompileOptions

	version          VersionStamp
	latestDocVersion VersionStamp

	documents  []*Document
	additional []*Document

	projectRefs  []ProjectReference
	metadataRefs []MetadataReference
	analyzerRefs []AnalyzerReference
}

// NewProject constructs a project snapshot from a loader descriptor, seeding
// fresh version stamps. Descriptor reference paths are not resolved here;
// that is the loader's second pass.
func NewProject(info ProjectInfo) *Project {
	id := info.ID
	if id.IsZero() {
		id = NewProjectID()
	}
	p := &Project{
		id:           id,
		name:         info.Name,
		language:     info.Language,
		filePath:     info.FilePath,
		outputPath:   info.OutputPath,
		options:      info.Options,
		version:      NewVersionStamp(),
		metadataRefs: dedupeMetadataRefs(info.MetadataReferences),
		analyzerRefs: dedupeAnalyzerRefs(info.AnalyzerReferences),
	}
	for _, di := range info.Documents {
		if di.ID.IsZero() {
			di.ID = NewDocumentID(id)
		}
		p.documents = append(p.documents, newDocument(di))
	}
	for _, di := range info.AdditionalDocuments {
		if di.ID.IsZero() {
			di.ID = NewDocumentID(id)
		}
		p.additional = append(p.additional, newDocument(di))
	}
	p.latestDocVersion = p.version
	for _, d := range p.documents {
		p.latestDocVersion = p.latestDocVersion.Max(d.version)
	}
	return p
}

// ID returns the stable identity of the project.
func (p *Project) ID() ProjectID { return p.id }

// Name returns the project display name.
func (p *Project) Name() string { return p.name }

// Language returns the source language of the project.
func (p *Project) Language() string { return p.language }

// FilePath returns the descriptor path the project was loaded from, if any.
func (p *Project) FilePath() string { return p.filePath }

// OutputPath returns where the project's build artifact lands, if known.
func (p *Project) OutputPath() string { return p.outputPath }

// Options returns the compilation settings.
func (p *Project) Options() CompileOptions { return p.options }

// Version returns the project-level version of this snapshot.
func (p *Project) Version() VersionStamp { return p.version }

// LatestDocumentVersion returns the newest text version across all contained
// documents. It moves whenever any contained document's text changes.
func (p *Project) LatestDocumentVersion() VersionStamp { return p.latestDocVersion }

// Documents returns the source documents in load order. The slice is the
// caller's to keep; appending to it never writes into the snapshot.
func (p *Project) Documents() []*Document {
	return append([]*Document(nil), p.documents...)
}

// AdditionalDocuments returns the non-source documents in load order. The
// slice is the caller's to keep.
func (p *Project) AdditionalDocuments() []*Document {
	return append([]*Document(nil), p.additional...)
}

// Document returns the source or additional document with the given identity.
func (p *Project) Document(id DocumentID) (*Document, bool) {
	for _, d := range p.documents {
		if d.id == id {
			return d, true
		}
	}
	for _, d := range p.additional {
		if d.id == id {
			return d, true
		}
	}
	return nil, false
}

// ProjectReferences returns the direct project references.
func (p *Project) ProjectReferences() []ProjectReference { return p.projectRefs }

// MetadataReferences returns the artifact references.
func (p *Project) MetadataReferences() []MetadataReference { return p.metadataRefs }

// AnalyzerReferences returns the analyzer references.
func (p *Project) AnalyzerReferences() []AnalyzerReference { return p.analyzerRefs }

// clone copies the project shell; slices still alias the receiver until the
// caller replaces the one it is changing.
func (p *Project) clone() *Project {
	next := *p
	return &next
}

// withDocumentText swaps in a new snapshot of an existing document. The
// project version is untouched; only the latest-document-version moves.
func (p *Project) withDocumentText(doc *Document) *Project {
	next := p.clone()
	if replaced, ok := replaceDocument(p.documents, doc); ok {
		next.documents = replaced
	} else if replaced, ok := replaceDocument(p.additional, doc); ok {
		next.additional = replaced
	} else {
		return p
	}
	next.latestDocVersion = p.latestDocVersion.Max(doc.version)
	if !next.latestDocVersion.NewerThan(p.latestDocVersion) {
		// Two documents edited within one clock tick: the max alone
		// would stall, but a text edit must advance the stamp.
		next.latestDocVersion = p.latestDocVersion.GetNewerVersion()
	}
	return next
}

func replaceDocument(docs []*Document, doc *Document) ([]*Document, bool) {
	for i, d := range docs {
		if d.id == doc.id {
			out := make([]*Document, len(docs))
			copy(out, docs)
			out[i] = doc
			return out, true
		}
	}
	return nil, false
}

func removeDocument(docs []*Document, id DocumentID) ([]*Document, *Document) {
	for i, d := range docs {
		if d.id == id {
			out := make([]*Document, 0, len(docs)-1)
			out = append(out, docs[:i]...)
			out = append(out, docs[i+1:]...)
			return out, d
		}
	}
	return nil, nil
}

func (p *Project) withDocumentAdded(doc *Document, additional bool) *Project {
	next := p.clone()
	if additional {
		next.additional = append(append([]*Document(nil), p.additional...), doc)
	} else {
		next.documents = append(append([]*Document(nil), p.documents...), doc)
	}
	next.version = p.version.GetNewerVersion()
	next.latestDocVersion = p.latestDocVersion.Max(doc.version)
	return next
}

func (p *Project) withDocumentRemoved(id DocumentID) (*Project, *Document) {
	next := p.clone()
	if docs, removed := removeDocument(p.documents, id); removed != nil {
		next.documents = docs
		next.version = p.version.GetNewerVersion()
		return next, removed
	}
	if docs, removed := removeDocument(p.additional, id); removed != nil {
		next.additional = docs
		next.version = p.version.GetNewerVersion()
		return next, removed
	}
	return p, nil
}

func (p *Project) withOptions(options CompileOptions) *Project {
	if p.options.equal(options) {
		return p
	}
	next := p.clone()
	next.options = options
	next.version = p.version.GetNewerVersion()
	return next
}

func (p *Project) withMetadataReferenceAdded(ref MetadataReference) *Project {
	next := p.clone()
	next.metadataRefs = dedupeMetadataRefs(append(append([]MetadataReference(nil), p.metadataRefs...), ref))
	if len(next.metadataRefs) == len(p.metadataRefs) {
		return p
	}
	next.version = p.version.GetNewerVersion()
	return next
}

func (p *Project) withMetadataReferenceRemoved(path string) *Project {
	for i, r := range p.metadataRefs {
		if r.Path == path {
			next := p.clone()
			refs := make([]MetadataReference, 0, len(p.metadataRefs)-1)
			refs = append(refs, p.metadataRefs[:i]...)
			refs = append(refs, p.metadataRefs[i+1:]...)
			next.metadataRefs = refs
			next.version = p.version.GetNewerVersion()
			return next
		}
	}
	return p
}

func (p *Project) withAnalyzerReferenceAdded(ref AnalyzerReference) *Project {
	next := p.clone()
	next.analyzerRefs = dedupeAnalyzerRefs(append(append([]AnalyzerReference(nil), p.analyzerRefs...), ref))
	if len(next.analyzerRefs) == len(p.analyzerRefs) {
		return p
	}
	next.version = p.version.GetNewerVersion()
	return next
}

func (p *Project) withProjectReferenceAdded(ref ProjectReference) *Project {
	next := p.clone()
	next.projectRefs = dedupeProjectRefs(append(append([]ProjectReference(nil), p.projectRefs...), ref))
	if len(next.projectRefs) == len(p.projectRefs) {
		return p
	}
	next.version = p.version.GetNewerVersion()
	return next
}

func (p *Project) withProjectReferenceRemoved(id ProjectID) *Project {
	for i, r := range p.projectRefs {
		if r.ProjectID == id {
			next := p.clone()
			refs := make([]ProjectReference, 0, len(p.projectRefs)-1)
			refs = append(refs, p.projectRefs[:i]...)
			refs = append(refs, p.projectRefs[i+1:]...)
			next.projectRefs = refs
			next.version = p.version.GetNewerVersion()
			return next
		}
	}
	return p
}

// upgradeMetadataReference converts the metadata reference at outputPath into
// a direct reference to target. Identity is preserved; only the reference set
// and version change.
func (p *Project) upgradeMetadataReference(outputPath string, target ProjectID) *Project {
	upgraded := p.withMetadataReferenceRemoved(outputPath)
	if upgraded == p {
		return p
	}
	return upgraded.withProjectReferenceAdded(ProjectReference{ProjectID: target})
}
