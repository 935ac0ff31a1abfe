// Package loader turns project descriptors from an external build-system
// reader into workspace solution snapshots. It owns the per-project load
// state machine (pending, loaded, skipped, failed), the tolerant/strict
// failure policy, and the two-pass resolution of inter-project references
// with metadata fallback.
package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/foundry-lang/foundry/workspace"
)

// Reader is the external build-system boundary. It parses one project
// descriptor into a ProjectInfo; the loader never reads descriptor syntax
// itself.
type Reader interface {
	ReadProject(ctx context.Context, path string) (workspace.ProjectInfo, error)
}

// Options configures load behavior.
type Options struct {
	// Strict raises the first project-load failure to the caller instead
	// of downgrading it to a diagnostic. Default is tolerant.
	Strict bool

	// MetadataFallback substitutes a metadata reference for an unloadable
	// project reference when the target's build output exists on disk.
	MetadataFallback bool

	// Logger receives structured logs. Nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions is tolerant with metadata fallback enabled.
func DefaultOptions() Options {
	return Options{MetadataFallback: true}
}

// Loader builds solutions from descriptors.
type Loader struct {
	reader Reader
	opts   Options
	logger *zap.Logger
}

// New constructs a loader over the given reader.
func New(reader Reader, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{reader: reader, opts: opts, logger: logger}
}

// loadState tracks one project-load attempt.
type loadState int

const (
	statePending loadState = iota
	stateLoaded
	stateSkipped
)

type attempt struct {
	path  string
	state loadState
	info  workspace.ProjectInfo
}

// LoadSolution loads the projects at the given descriptor paths into a fresh
// solution snapshot. In tolerant mode (the default) a failing project is
// recorded as a diagnostic and omitted; the load still returns a smaller but
// valid solution. In strict mode the first failure aborts the load and no
// solution is returned.
func (l *Loader) LoadSolution(ctx context.Context, paths []string) (*workspace.Solution, []workspace.Diagnostic, error) {
	var diags []workspace.Diagnostic
	attempts := make([]*attempt, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		a := &attempt{path: normalizePath(path)}
		attempts = append(attempts, a)

		info, err := l.reader.ReadProject(ctx, a.path)
		if err != nil {
			if l.opts.Strict {
				return nil, nil, err
			}
			diags = append(diags, diagnosticForLoadError(a.path, err))
			a.state = stateSkipped
			l.logger.Warn("skipped project", zap.String("path", a.path), zap.Error(err))
			continue
		}
		if info.ID.IsZero() {
			info.ID = workspace.NewProjectID()
		}
		if info.FilePath == "" {
			info.FilePath = a.path
		}
		a.info = info
		a.state = stateLoaded
	}

	solution := workspace.NewSolution(workspace.NewSolutionID())
	byPath := make(map[string]workspace.ProjectID)
	for _, a := range attempts {
		if a.state != stateLoaded {
			continue
		}
		solution = solution.AddProject(workspace.NewProject(a.info))
		byPath[a.path] = a.info.ID
	}

	// Second pass: references resolve only once every requested project has
	// settled into loaded or skipped.
	for _, a := range attempts {
		if a.state != stateLoaded {
			continue
		}
		var refDiags []workspace.Diagnostic
		solution, refDiags = l.resolveReferences(ctx, solution, a.info.ID, a.path, a.info.ProjectReferencePaths, byPath)
		diags = append(diags, refDiags...)
	}

	l.logger.Info("loaded solution",
		zap.Int("requested", len(paths)),
		zap.Int("loaded", len(byPath)),
		zap.Int("diagnostics", len(diags)))
	return solution, diags, nil
}

// LoadInto loads the descriptor paths and installs the result as the
// workspace's current solution, recording diagnostics on the workspace.
func (l *Loader) LoadInto(ctx context.Context, ws *workspace.Workspace, paths []string) (*workspace.Solution, error) {
	solution, diags, err := l.LoadSolution(ctx, paths)
	if err != nil {
		return nil, err
	}
	ws.AddDiagnostics(diags...)
	return ws.SetSolution(solution), nil
}

// LoadProject loads one more project into an already-loaded workspace. If any
// loaded project metadata-references the new project's build output, the
// workspace upgrades that reference to a direct project reference.
func (l *Loader) LoadProject(ctx context.Context, ws *workspace.Workspace, path string) (*workspace.Project, error) {
	path = normalizePath(path)
	info, err := l.reader.ReadProject(ctx, path)
	if err != nil {
		if l.opts.Strict {
			return nil, err
		}
		ws.AddDiagnostics(diagnosticForLoadError(path, err))
		return nil, err
	}
	if info.ID.IsZero() {
		info.ID = workspace.NewProjectID()
	}
	if info.FilePath == "" {
		info.FilePath = path
	}

	project := workspace.NewProject(info)
	if _, err := ws.AddProject(project); err != nil {
		return nil, err
	}

	byPath := make(map[string]workspace.ProjectID)
	for _, p := range ws.CurrentSolution().Projects() {
		if p.FilePath() != "" {
			byPath[normalizePath(p.FilePath())] = p.ID()
		}
	}
	current := ws.CurrentSolution()
	solution, refDiags := l.resolveReferences(ctx, current, info.ID, path, info.ProjectReferencePaths, byPath)
	ws.AddDiagnostics(refDiags...)
	if solution != current {
		ws.SetSolution(solution)
	}

	loaded, _ := ws.CurrentSolution().Project(info.ID)
	return loaded, nil
}

// resolveReferences settles one project's descriptor reference paths: a
// loaded target becomes a project reference; otherwise, when fallback is
// enabled and the target's build output exists on disk, a metadata reference;
// otherwise the reference is dropped with a diagnostic.
func (l *Loader) resolveReferences(ctx context.Context, solution *workspace.Solution, projectID workspace.ProjectID, projectPath string, refPaths []string, byPath map[string]workspace.ProjectID) (*workspace.Solution, []workspace.Diagnostic) {
	var diags []workspace.Diagnostic
	baseDir := filepath.Dir(projectPath)

	for _, refPath := range refPaths {
		resolved := refPath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(baseDir, resolved)
		}
		resolved = normalizePath(resolved)

		if targetID, ok := byPath[resolved]; ok {
			solution = solution.AddProjectReference(projectID, workspace.ProjectReference{ProjectID: targetID})
			continue
		}

		if l.opts.MetadataFallback {
			if output := l.peekOutputPath(ctx, resolved); output != "" {
				if _, err := os.Stat(output); err == nil {
					solution = solution.AddMetadataReference(projectID, workspace.MetadataReference{Path: output})
					l.logger.Debug("substituted metadata reference",
						zap.String("project", projectPath),
						zap.String("target", resolved),
						zap.String("output", output))
					continue
				}
			}
		}

		diags = append(diags, workspace.Diagnostic{
			Severity: workspace.DiagnosticSeverityWarning,
			Message:  "dropped unresolvable project reference to " + resolved,
			Path:     projectPath,
		})
	}
	return solution, diags
}

// peekOutputPath reads an unloaded descriptor just to learn where its build
// artifact would land. Failures are not diagnostics here; the caller reports
// the dropped reference.
func (l *Loader) peekOutputPath(ctx context.Context, path string) string {
	info, err := l.reader.ReadProject(ctx, path)
	if err != nil {
		return ""
	}
	if info.OutputPath != "" && !filepath.IsAbs(info.OutputPath) {
		return filepath.Join(filepath.Dir(path), info.OutputPath)
	}
	return info.OutputPath
}

// diagnosticForLoadError downgrades a load failure to a recorded diagnostic.
func diagnosticForLoadError(path string, err error) workspace.Diagnostic {
	var (
		notFound    *workspace.NotFoundError
		unsupported *workspace.UnsupportedFormatError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &unsupported):
		return workspace.Diagnostic{
			Severity: workspace.DiagnosticSeverityError,
			Message:  err.Error(),
			Path:     path,
		}
	default:
		// Anything else means the external read itself blew up.
		var buildErr *workspace.BuildToolError
		if !errors.As(err, &buildErr) {
			err = &workspace.BuildToolError{Path: path, Err: err}
		}
		return workspace.Diagnostic{
			Severity: workspace.DiagnosticSeverityError,
			Message:  err.Error(),
			Path:     path,
		}
	}
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
