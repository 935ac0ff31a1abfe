// Package manifest reads foundry's TOML workspace and project manifests and
// turns them into workspace descriptors. It is one implementation of the
// loader's Reader boundary; the core state model never sees TOML.
//
// A workspace manifest (foundry.toml) lists project manifest paths:
//
//	projects = ["app/app.project.toml", "lib/lib.project.toml"]
//
// A project manifest (<name>.project.toml) describes one project:
//
//	name = "app"
//	language = "foundry"
//	output = "build/app.flib"
//	sources = ["main.fy"]
//	additional = ["README.md"]
//	project_references = ["../lib/lib.project.toml"]
//	metadata_references = ["/usr/lib/foundry/std.flib"]
//	analyzer_references = ["/usr/lib/foundry/lint.so"]
//
//	[options]
//	output_kind = "library"
//	defines = ["DEBUG"]
//	warnings_as_errors = true
package manifest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/foundry-lang/foundry/internal/textfile"
	"github.com/foundry-lang/foundry/workspace"
)

const (
	// WorkspaceManifestName is the file name of a workspace manifest.
	WorkspaceManifestName = "foundry.toml"

	// ProjectManifestSuffix is the required suffix of a project manifest.
	ProjectManifestSuffix = ".project.toml"

	// SourceExtension is the only source extension the reader accepts.
	SourceExtension = ".fy"

	// Language is the only language the reader accepts.
	Language = "foundry"
)

type workspaceManifest struct {
	Projects []string `toml:"projects"`
}

type projectManifest struct {
	Name               string          `toml:"name"`
	Language           string          `toml:"language"`
	Output             string          `toml:"output"`
	Sources            []string        `toml:"sources"`
	Additional         []string        `toml:"additional"`
	ProjectReferences  []string        `toml:"project_references"`
	MetadataReferences []string        `toml:"metadata_references"`
	AnalyzerReferences []string        `toml:"analyzer_references"`
	Options            optionsManifest `toml:"options"`
}

type optionsManifest struct {
	OutputKind       string   `toml:"output_kind"`
	Defines          []string `toml:"defines"`
	WarningsAsErrors bool     `toml:"warnings_as_errors"`
}

// Reader parses foundry manifests into workspace descriptors. It satisfies
// the loader.Reader interface.
type Reader struct {
	source *textfile.Source
}

// NewReader constructs a manifest reader that loads document text through the
// given filesystem source.
func NewReader(source *textfile.Source) *Reader {
	return &Reader{source: source}
}

// ReadWorkspace reads a workspace manifest and returns the project manifest
// paths it lists, resolved relative to the manifest.
func (r *Reader) ReadWorkspace(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &workspace.NotFoundError{Path: path}
		}
		return nil, &workspace.IOError{Path: path, Err: err}
	}
	var m workspaceManifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, &workspace.BuildToolError{Path: path, Err: err}
	}
	dir := filepath.Dir(path)
	paths := make([]string, 0, len(m.Projects))
	for _, p := range m.Projects {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// ReadProject parses one project manifest into a descriptor. It enforces the
// manifest suffix, the project language, and the source file extension;
// violations surface as UnsupportedFormatError, malformed TOML as
// BuildToolError with the fixed "build failed" message prefix.
func (r *Reader) ReadProject(ctx context.Context, path string) (workspace.ProjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return workspace.ProjectInfo{}, err
	}
	if !strings.HasSuffix(path, ProjectManifestSuffix) {
		return workspace.ProjectInfo{}, &workspace.UnsupportedFormatError{Path: path}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return workspace.ProjectInfo{}, &workspace.NotFoundError{Path: path}
		}
		return workspace.ProjectInfo{}, &workspace.IOError{Path: path, Err: err}
	}
	var m projectManifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return workspace.ProjectInfo{}, &workspace.BuildToolError{Path: path, Err: err}
	}
	if m.Language != "" && m.Language != Language {
		return workspace.ProjectInfo{}, &workspace.UnsupportedFormatError{Path: path, Language: m.Language}
	}

	dir := filepath.Dir(path)
	name := m.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ProjectManifestSuffix)
	}

	info := workspace.ProjectInfo{
		Name:                  name,
		Language:              Language,
		FilePath:              path,
		ProjectReferencePaths: m.ProjectReferences,
		Options: workspace.CompileOptions{
			OutputKind:       m.Options.OutputKind,
			Defines:          m.Options.Defines,
			WarningsAsErrors: m.Options.WarningsAsErrors,
		},
	}
	if m.Output != "" {
		output := m.Output
		if !filepath.IsAbs(output) {
			output = filepath.Join(dir, output)
		}
		info.OutputPath = output
	}

	for _, src := range m.Sources {
		if filepath.Ext(src) != SourceExtension {
			return workspace.ProjectInfo{}, &workspace.UnsupportedFormatError{Path: filepath.Join(dir, src)}
		}
		info.Documents = append(info.Documents, r.documentInfo(dir, src))
	}
	for _, add := range m.Additional {
		info.AdditionalDocuments = append(info.AdditionalDocuments, r.documentInfo(dir, add))
	}
	for _, ref := range m.MetadataReferences {
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(dir, ref)
		}
		info.MetadataReferences = append(info.MetadataReferences, workspace.MetadataReference{Path: ref})
	}
	for _, ref := range m.AnalyzerReferences {
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(dir, ref)
		}
		info.AnalyzerReferences = append(info.AnalyzerReferences, workspace.AnalyzerReference{Path: ref})
	}
	return info, nil
}

// documentInfo builds a lazily loaded document descriptor. Folder segments
// come from the path components between the project directory and the file.
func (r *Reader) documentInfo(dir, rel string) workspace.DocumentInfo {
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, rel)
	}
	var folders []string
	if sub := filepath.Dir(rel); sub != "." && !filepath.IsAbs(rel) {
		folders = strings.Split(filepath.ToSlash(sub), "/")
	}
	return workspace.DocumentInfo{
		Name:     filepath.Base(rel),
		Folders:  folders,
		FilePath: path,
		Loader:   r.source.LoaderFor(path),
	}
}
