// Package watch monitors the files backing a loaded solution and feeds
// external edits back into the workspace, so subscribers observe the same
// DocumentChanged events for on-disk edits as for editor-initiated ones.
package watch

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileWatcher monitors file system changes and triggers a debounced callback
// with the batch of changed paths.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	patterns  []string
	onChange  func([]string)
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewFileWatcher creates a watcher over the given directories. Only files
// matching one of the patterns (e.g. "*.fy") are reported; hidden files are
// always ignored.
func NewFileWatcher(dirs, patterns []string, debounce time.Duration, logger *zap.Logger, onChange func([]string)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(debounce),
		patterns:  patterns,
		onChange:  onChange,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
	fw.debouncer.SetCallback(onChange)

	for _, dir := range dedupe(dirs) {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
		logger.Debug("watching directory", zap.String("dir", dir))
	}
	return fw, nil
}

// Start begins dispatching file events in the background.
func (fw *FileWatcher) Start() {
	fw.wg.Add(1)
	go fw.watch()
}

// Stop stops the watcher. Safe to call more than once.
func (fw *FileWatcher) Stop() error {
	fw.stopOnce.Do(func() { close(fw.stopChan) })
	fw.wg.Wait()
	fw.debouncer.Stop()
	return fw.watcher.Close()
}

func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fw.shouldIgnore(event.Name) || !fw.matchesPattern(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fw.logger.Debug("file changed", zap.String("path", event.Name))
				fw.debouncer.Add(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) shouldIgnore(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func (fw *FileWatcher) matchesPattern(path string) bool {
	if len(fw.patterns) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, pattern := range fw.patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func dedupe(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// Debouncer collects changed paths and fires the callback once no new change
// has arrived for the configured duration.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// SetCallback sets the function invoked with each flushed batch.
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Add records a changed path and resets the quiet period.
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.files[file] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// Stop cancels any pending flush.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 {
		d.mutex.Unlock()
		return
	}
	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	if callback != nil {
		callback(files)
	}
}
