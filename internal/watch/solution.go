package watch

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/foundry-lang/foundry/internal/textfile"
	"github.com/foundry-lang/foundry/workspace"
)

// SolutionWatcher reloads documents in a workspace when their backing files
// change on disk. Reloads go through the host mutation path, so every
// external edit becomes a DocumentChanged event for subscribers.
type SolutionWatcher struct {
	ws     *workspace.Workspace
	source *textfile.Source
	fw     *FileWatcher
	logger *zap.Logger
}

// NewSolutionWatcher builds a watcher over every directory containing a
// document of the workspace's current solution.
func NewSolutionWatcher(ws *workspace.Workspace, source *textfile.Source, debounce time.Duration, logger *zap.Logger) (*SolutionWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sw := &SolutionWatcher{ws: ws, source: source, logger: logger}

	var dirs []string
	for _, p := range ws.CurrentSolution().Projects() {
		for _, d := range append(p.Documents(), p.AdditionalDocuments()...) {
			if d.FilePath() != "" {
				dirs = append(dirs, filepath.Dir(d.FilePath()))
			}
		}
	}

	fw, err := NewFileWatcher(dirs, nil, debounce, logger, sw.onFilesChanged)
	if err != nil {
		return nil, err
	}
	sw.fw = fw
	return sw, nil
}

// Start begins watching.
func (sw *SolutionWatcher) Start() { sw.fw.Start() }

// Stop stops watching.
func (sw *SolutionWatcher) Stop() error { return sw.fw.Stop() }

func (sw *SolutionWatcher) onFilesChanged(paths []string) {
	ctx := context.Background()
	for _, path := range paths {
		doc := sw.findDocument(path)
		if doc == nil {
			continue
		}
		text, err := sw.source.LoadText(ctx, path)
		if err != nil {
			sw.logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
			continue
		}
		// Compare only against text the snapshot already holds; loading
		// here would read the post-edit file and swallow the change.
		if current, ok := doc.TryGetText(); ok && current.Content == text.Content {
			continue
		}
		if _, err := sw.ws.SetDocumentText(doc.ID(), text.Content); err != nil {
			sw.logger.Warn("document update failed", zap.String("path", path), zap.Error(err))
			continue
		}
		sw.logger.Info("reloaded document", zap.String("path", path))
	}
}

func (sw *SolutionWatcher) findDocument(path string) *workspace.Document {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, p := range sw.ws.CurrentSolution().Projects() {
		for _, d := range append(p.Documents(), p.AdditionalDocuments()...) {
			if d.FilePath() == abs || d.FilePath() == path {
				return d
			}
		}
	}
	return nil
}
