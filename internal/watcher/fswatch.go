package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FsWatchSource is the fsnotify-backed WatchSource. Each Watch call owns one
// recursive directory watch; directories created later are registered as
// they appear.
type FsWatchSource struct {
	logf func(string, ...any)
}

// NewFsWatchSource creates an FsWatchSource.
func NewFsWatchSource(logf func(string, ...any)) *FsWatchSource {
	return &FsWatchSource{logf: logf}
}

// Watch starts a recursive watch rooted at path. The .git entry is skipped;
// index and ref changes are picked up through the periodic poll instead.
func (s *FsWatchSource) Watch(path string, onEvent func()) (func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "watch", Path: path, Err: os.ErrInvalid}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &treeWatch{
		root:    path,
		watcher: watcher,
		onEvent: onEvent,
		done:    make(chan struct{}),
		paths:   make(map[string]struct{}),
		logf:    s.logf,
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	w.paths[path] = struct{}{}
	w.addTree(path)

	go w.run()
	return w.stop, nil
}

type treeWatch struct {
	root    string
	watcher *fsnotify.Watcher
	onEvent func()
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	paths   map[string]struct{}
	logf    func(string, ...any)
}

func (w *treeWatch) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if w.underGitDir(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchNewDir(event.Name)
			}
			w.onEvent()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.debugf("watch %s: %v", w.root, err)
		}
	}
}

func (w *treeWatch) stop() {
	w.once.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *treeWatch) underGitDir(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return rel == ".git" || strings.HasPrefix(rel, ".git"+string(filepath.Separator))
}

func (w *treeWatch) maybeWatchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.addDir(path)
}

func (w *treeWatch) addDir(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.debugf("watch add failed for %s: %v", path, err)
		return
	}
	w.paths[path] = struct{}{}
}

func (w *treeWatch) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" && path != root {
			return filepath.SkipDir
		}
		w.addDir(path)
		return nil
	})
}

func (w *treeWatch) debugf(format string, args ...any) {
	if w.logf == nil {
		return
	}
	w.logf(format, args...)
}
