package workspace

// ProjectReference is a direct reference from one project to another loaded
// project in the same solution.
type ProjectReference struct {
	// ProjectID identifies the referenced project.
	ProjectID ProjectID

	// Aliases are optional extern-alias names for the reference. Two
	// references to the same project that differ only by alias are
	// considered duplicates.
	Aliases []string
}

// MetadataReference is a reference to a compiled artifact on disk. A loader
// may substitute one for a project reference when the referenced project is
// not loaded but its build output exists.
type MetadataReference struct {
	// Path is the location of the artifact.
	Path string

	// Aliases are optional extern-alias names for the reference.
	Aliases []string
}

// AnalyzerReference is a reference to an analyzer plugin artifact.
type AnalyzerReference struct {
	Path string
}

// dedupeProjectRefs drops references distinguishable only by alias, keeping
// the first occurrence per target.
func dedupeProjectRefs(refs []ProjectReference) []ProjectReference {
	seen := make(map[ProjectID]bool, len(refs))
	out := refs[:0:0]
	for _, r := range refs {
		if seen[r.ProjectID] {
			continue
		}
		seen[r.ProjectID] = true
		out = append(out, r)
	}
	return out
}

func dedupeMetadataRefs(refs []MetadataReference) []MetadataReference {
	seen := make(map[string]bool, len(refs))
	out := refs[:0:0]
	for _, r := range refs {
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r)
	}
	return out
}

func dedupeAnalyzerRefs(refs []AnalyzerReference) []AnalyzerReference {
	seen := make(map[string]bool, len(refs))
	out := refs[:0:0]
	for _, r := range refs {
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r)
	}
	return out
}
