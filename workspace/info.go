package workspace

// DocumentInfo describes a document to be constructed, as produced by an
// external loader. The core never reads build-system files itself; it only
// consumes these descriptors.
type DocumentInfo struct {
	// ID is the identity to assign. A zero ID gets a fresh one when the
	// owning project is constructed.
	ID DocumentID

	// Name is the display name, typically the file base name.
	Name string

	// Folders are the logical folder segments containing the document.
	Folders []string

	// FilePath is the on-disk backing path, or "" for in-memory documents.
	FilePath string

	// Encoding fixes the document encoding, or "" when unknown until the
	// first read.
	Encoding string

	// Loader supplies the document text on demand.
	Loader TextLoader
}

// CompileOptions are the project-level compilation settings. Changing them
// bumps the project version.
type CompileOptions struct {
	// OutputKind is the artifact kind, e.g. "library" or "executable".
	OutputKind string

	// Defines are conditional-compilation symbols, in order.
	Defines []string

	// WarningsAsErrors promotes warnings during compilation.
	WarningsAsErrors bool
}

func (o CompileOptions) equal(other CompileOptions) bool {
	if o.OutputKind != other.OutputKind || o.WarningsAsErrors != other.WarningsAsErrors {
		return false
	}
	if len(o.Defines) != len(other.Defines) {
		return false
	}
	for i, d := range o.Defines {
		if other.Defines[i] != d {
			return false
		}
	}
	return true
}

// ProjectInfo describes a project to be constructed, as produced by an
// external loader.
type ProjectInfo struct {
	// ID is the identity to assign. A zero ID gets a fresh one.
	ID ProjectID

	// Name is the project display name.
	Name string

	// Language names the source language of the project.
	Language string

	// FilePath is the on-disk path of the project descriptor, if any.
	FilePath string

	// OutputPath is where the project's build artifact lands. Loaders use
	// it for metadata-reference fallback.
	OutputPath string

	// Documents are the source documents, in loader order. Order is
	// preserved; some loaders emit duplicate names.
	Documents []DocumentInfo

	// AdditionalDocuments are non-source documents, in loader order.
	AdditionalDocuments []DocumentInfo

	// ProjectReferencePaths are descriptor paths of referenced projects,
	// resolved to ProjectReferences or MetadataReferences by the loader's
	// second pass.
	ProjectReferencePaths []string

	// MetadataReferences are direct artifact references.
	MetadataReferences []MetadataReference

	// AnalyzerReferences are analyzer plugin references.
	AnalyzerReferences []AnalyzerReference

	// Options are the compilation settings.
	Options CompileOptions
}
