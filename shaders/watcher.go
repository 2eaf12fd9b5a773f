package shaders

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"r3d/core"
)

// Watcher records programs whose override sources changed on disk.
//
// Events are collected by a background goroutine; the render thread picks
// them up with Drain and recompiles there, since programs can only be built
// on the thread owning the graphics context.
type Watcher struct {
	fs  *fsnotify.Watcher
	log *log.Logger

	mu      sync.Mutex
	pending map[Name]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// Watch starts watching dir for shader file changes.
func Watch(dir string, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = core.Logger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w := &Watcher{
		fs:      fsw,
		log:     logger,
		pending: make(map[Name]struct{}),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	logger.Info("watching shader sources", "dir", dir)
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.touch(filepath.Base(e.Name))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("shader watcher error", "err", err)
		case <-w.done:
			return
		}
	}
}

// touch marks every program assembled from file as pending.
func (w *Watcher) touch(file string) {
	names := UsingFile(file)
	if len(names) == 0 {
		return
	}
	w.mu.Lock()
	for _, n := range names {
		w.pending[n] = struct{}{}
	}
	w.mu.Unlock()
	w.log.Debug("shader source changed", "file", file, "programs", len(names))
}

// Drain returns the pending programs in a stable order and clears the set.
func (w *Watcher) Drain() []Name {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := make([]Name, 0, len(w.pending))
	for n := range w.pending {
		out = append(out, n)
	}
	clear(w.pending)
	slices.Sort(out)
	return out
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

// ReloadPending recompiles every drained program that the library has
// loaded. It returns the number of programs successfully reloaded and every
// drained name, loaded or not.
func (l *Library) ReloadPending(w *Watcher) (int, []Name) {
	if w == nil {
		return 0, nil
	}
	n := 0
	changed := w.Drain()
	for _, name := range changed {
		if !l.Loaded(name) {
			continue
		}
		if err := l.Reload(name); err == nil {
			n++
		}
	}
	return n, changed
}
