package gravisim

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for file events.
const DefaultWatchDebounce = 500 * time.Millisecond

// fileWatcher calls onChange once per burst of changes to any of its
// files. Directories are watched instead of the files themselves so that
// editors saving by rename are noticed.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool // absolute paths, guarded by mu
	debounce time.Duration
	onChange func() error
	onError  func(error)

	stopCh    chan struct{}
	stoppedCh chan struct{}
	mu        sync.Mutex
	running   bool
}

func newFileWatcher(paths []string, debounce time.Duration, onChange func() error, onError func(error)) (*fileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	return &fileWatcher{
		watcher:   w,
		files:     files,
		debounce:  debounce,
		onChange:  onChange,
		onError:   onError,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Start begins watching in a goroutine.
func (fw *fileWatcher) Start() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.running {
		return
	}
	fw.running = true
	go fw.loop()
}

// Stop stops watching and waits for the goroutine to exit. It closes the
// underlying watcher, so a stopped fileWatcher cannot be restarted.
func (fw *fileWatcher) Stop() {
	fw.mu.Lock()
	running := fw.running
	fw.running = false
	fw.mu.Unlock()
	if !running {
		fw.watcher.Close()
		return
	}
	close(fw.stopCh)
	<-fw.stoppedCh
}

// track adds path to the watched files.
func (fw *fileWatcher) track(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.files[abs] {
		return nil
	}
	if err := fw.watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	fw.files[abs] = true
	return nil
}

func (fw *fileWatcher) watches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.files[abs]
}

func (fw *fileWatcher) loop() {
	defer close(fw.stoppedCh)
	defer fw.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-fw.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.watches(ev.Name) || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(fw.debounce)
			fire = timer.C

		case <-fire:
			timer, fire = nil, nil
			if fw.onChange != nil {
				if err := fw.onChange(); err != nil && fw.onError != nil {
					fw.onError(err)
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			if fw.onError != nil {
				fw.onError(err)
			}
		}
	}
}
