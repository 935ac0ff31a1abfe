// Package workspace implements an immutable, versioned model of a solution of
// projects and documents, plus the change-application protocol that advances
// it. Snapshots are persistent values with structural sharing: reads never
// take a lock, and the single mutable cell is the workspace's current
// solution pointer.
package workspace

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Options configures a Workspace.
type Options struct {
	// Capabilities is the table of change kinds TryApplyChanges may
	// perform. The zero value allows everything.
	Capabilities Capabilities

	// Writer persists document text during change application. Nil means
	// the workspace backs nothing with disk and skips the write phase.
	Writer TextWriter

	// Logger receives structured logs. Nil means no logging.
	Logger *zap.Logger
}

// Workspace holds exactly one current solution at a time. Replacing it is the
// only mutation primitive: TryApplyChanges for caller-proposed candidates,
// and the host mutation methods for loader- and editor-initiated changes.
// Reads are lock-free; mutations serialize on a single writer lock so the
// diff-check and swap phases of concurrent applies never interleave.
type Workspace struct {
	mu      sync.Mutex
	current atomic.Pointer[Solution]

	caps   Capabilities
	writer TextWriter
	logger *zap.Logger
	bus    *eventBus

	diagMu      sync.Mutex
	diagnostics []Diagnostic

	closed atomic.Bool
}

// New constructs a workspace holding an empty solution.
func New(opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workspace{
		caps:   opts.Capabilities,
		writer: opts.Writer,
		logger: logger,
		bus:    newEventBus(),
	}
	w.current.Store(NewSolution(NewSolutionID()))
	return w
}

// CurrentSolution returns the current snapshot. The returned value is
// immutable and stays valid after later swaps.
func (w *Workspace) CurrentSolution() *Solution {
	return w.current.Load()
}

// Capabilities returns the host's capability table.
func (w *Workspace) Capabilities() Capabilities {
	return w.caps
}

// CanApplyChange reports whether the host permits the given change kind.
func (w *Workspace) CanApplyChange(kind ChangeKind) bool {
	return w.caps.CanApply(kind)
}

// Subscribe registers a handler for change events. Events are delivered
// synchronously, in registration order, before the mutating call returns.
// Delivery happens after the mutation lock is released, so a handler may
// itself mutate the workspace; the resulting event is delivered after the
// current one.
func (w *Workspace) Subscribe(handler func(Event)) *Subscription {
	return w.bus.subscribe(handler)
}

// AddDiagnostics records load-time diagnostics against the workspace.
func (w *Workspace) AddDiagnostics(diags ...Diagnostic) {
	if len(diags) == 0 {
		return
	}
	w.diagMu.Lock()
	w.diagnostics = append(w.diagnostics, diags...)
	w.diagMu.Unlock()
	for _, d := range diags {
		w.logger.Warn("workspace diagnostic",
			zap.String("severity", d.Severity.String()),
			zap.String("path", d.Path),
			zap.String("message", d.Message))
	}
}

// Diagnostics returns a copy of the recorded load diagnostics.
func (w *Workspace) Diagnostics() []Diagnostic {
	w.diagMu.Lock()
	defer w.diagMu.Unlock()
	out := make([]Diagnostic, len(w.diagnostics))
	copy(out, w.diagnostics)
	return out
}

// Close releases the workspace: subscribers are dropped and further
// mutations are rejected. Snapshots already handed out remain valid.
func (w *Workspace) Close() {
	w.closed.Store(true)
	w.bus.mu.Lock()
	w.bus.subscribers = nil
	w.bus.mu.Unlock()
}

// TryApplyChanges validates and applies a candidate solution derived from the
// current one. The capability check runs over the whole diff before any I/O
// begins, so a rejected call performs zero partial application. Disk writes
// for changed documents happen before the swap; the first write failure
// aborts the call and the current solution is not replaced. Files already
// written in the same call are not rolled back.
//
// On success the current solution pointer is swapped and exactly one event is
// published. Returns true when the candidate was applied (including the
// trivial no-change case).
func (w *Workspace) TryApplyChanges(ctx context.Context, candidate *Solution) (bool, error) {
	if candidate == nil {
		return false, fmt.Errorf("nil candidate solution")
	}
	applied, err := w.tryApplyLocked(ctx, candidate)
	if applied {
		w.bus.drain()
	}
	return applied, err
}

func (w *Workspace) tryApplyLocked(ctx context.Context, candidate *Solution) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed.Load() {
		return false, fmt.Errorf("workspace is closed")
	}
	old := w.current.Load()
	if candidate.id != old.id {
		return false, fmt.Errorf("candidate solution does not derive from this workspace")
	}
	if candidate == old {
		return true, nil
	}

	diff := Diff(old, candidate)
	if diff.IsEmpty() {
		w.current.Store(candidate)
		return true, nil
	}
	for _, kind := range diff.ChangeKinds() {
		if !w.caps.CanApply(kind) {
			return false, &UnsupportedChangeError{Kind: kind}
		}
	}

	if err := w.applyToDisk(ctx, diff); err != nil {
		return false, err
	}

	w.current.Store(candidate)
	kind, projectID, docID := diff.dominantEvent()
	w.logger.Debug("applied changes",
		zap.Stringer("event", kind),
		zap.Int("projects_added", len(diff.AddedProjects)),
		zap.Int("projects_removed", len(diff.RemovedProjects)),
		zap.Int("projects_changed", len(diff.ProjectDiffs)))
	w.bus.enqueue(Event{
		Kind:        kind,
		OldSolution: old,
		NewSolution: candidate,
		ProjectID:   projectID,
		DocumentID:  docID,
	})
	return true, nil
}

// applyToDisk performs the side-effecting half of an apply: writes for
// changed and added documents with disk backing, deletes for removed ones.
func (w *Workspace) applyToDisk(ctx context.Context, diff SolutionDiff) error {
	if w.writer == nil {
		return nil
	}
	for _, pd := range diff.ProjectDiffs {
		changes := append(append([]DocumentChange(nil), pd.ChangedDocuments...), pd.ChangedAdditional...)
		for _, c := range changes {
			if c.New.filePath == "" {
				continue
			}
			text, err := c.New.Text(ctx)
			if err != nil {
				return err
			}
			if err := w.writer.WriteText(c.New.filePath, text); err != nil {
				return &IOError{Path: c.New.filePath, Err: err}
			}
		}
		added := append(append([]*Document(nil), pd.AddedDocuments...), pd.AddedAdditional...)
		for _, d := range added {
			if d.filePath == "" {
				continue
			}
			text, err := d.Text(ctx)
			if err != nil {
				return err
			}
			if err := w.writer.WriteText(d.filePath, text); err != nil {
				return &IOError{Path: d.filePath, Err: err}
			}
		}
		removed := append(append([]*Document(nil), pd.RemovedDocuments...), pd.RemovedAdditional...)
		for _, d := range removed {
			if d.filePath == "" {
				continue
			}
			if err := w.writer.Remove(d.filePath); err != nil {
				return &IOError{Path: d.filePath, Err: err}
			}
		}
	}
	return nil
}

// SetDocumentText is a host-initiated text change: it swaps in a new snapshot
// without capability checks or disk writes, the way an editor overlay or a
// file watcher feeds the workspace. Publishes one DocumentChanged event.
func (w *Workspace) SetDocumentText(id DocumentID, content string) (*Solution, error) {
	return w.hostMutate(func(old *Solution) (*Solution, Event, error) {
		next := old.WithDocumentText(id, content)
		if next == old {
			return nil, Event{}, &NotFoundError{Path: id.String()}
		}
		return next, Event{Kind: DocumentChanged, ProjectID: id.ProjectID, DocumentID: id}, nil
	})
}

// AddProject is a host-initiated project addition, used by loaders. When the
// new project's build output is metadata-referenced by loaded projects, those
// references are upgraded to direct project references; the dependents keep
// their identity, only their reference sets and versions move. Publishes one
// ProjectAdded event.
func (w *Workspace) AddProject(p *Project) (*Solution, error) {
	return w.hostMutate(func(old *Solution) (*Solution, Event, error) {
		if old.ContainsProject(p.id) {
			return nil, Event{}, fmt.Errorf("project %s already present", p.id)
		}
		next := old.AddProject(p)
		if p.outputPath != "" {
			for _, existing := range next.Projects() {
				if existing.id == p.id {
					continue
				}
				upgraded := existing.upgradeMetadataReference(p.outputPath, p.id)
				if upgraded != existing {
					next = next.withProject(upgraded)
					w.logger.Info("upgraded metadata reference to project reference",
						zap.String("dependent", existing.name),
						zap.String("target", p.name))
				}
			}
		}
		return next, Event{Kind: ProjectAdded, ProjectID: p.id}, nil
	})
}

// RemoveProject is a host-initiated project removal. Publishes one
// ProjectRemoved event.
func (w *Workspace) RemoveProject(id ProjectID) (*Solution, error) {
	return w.hostMutate(func(old *Solution) (*Solution, Event, error) {
		if !old.ContainsProject(id) {
			return nil, Event{}, &NotFoundError{Path: id.String()}
		}
		return old.RemoveProject(id), Event{Kind: ProjectRemoved, ProjectID: id}, nil
	})
}

// SetSolution replaces the whole current solution, used by loaders after a
// full load. Publishes one SolutionChanged event.
func (w *Workspace) SetSolution(s *Solution) *Solution {
	next, _ := w.hostMutate(func(old *Solution) (*Solution, Event, error) {
		return s, Event{Kind: SolutionChanged}, nil
	})
	return next
}

func (w *Workspace) hostMutate(f func(old *Solution) (*Solution, Event, error)) (*Solution, error) {
	next, err := w.hostMutateLocked(f)
	if err != nil {
		return nil, err
	}
	w.bus.drain()
	return next, nil
}

func (w *Workspace) hostMutateLocked(f func(old *Solution) (*Solution, Event, error)) (*Solution, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed.Load() {
		return nil, fmt.Errorf("workspace is closed")
	}
	old := w.current.Load()
	next, event, err := f(old)
	if err != nil {
		return nil, err
	}
	w.current.Store(next)
	event.OldSolution = old
	event.NewSolution = next
	w.bus.enqueue(event)
	return next, nil
}
