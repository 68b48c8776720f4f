package cli

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long Watch waits for a burst of file events to
// settle before reading the file.
const DefaultWatchDebounce = 100 * time.Millisecond

// Watch calls onChange with the file content once at start and again every time
// it changes, until ctx is done. The parent directory is watched so that files
// replaced by rename (as most editors save) and files created later are seen.
// A missing file is reported to onChange as fs.ErrNotExist and watching
// continues. Events that leave the content unchanged are ignored.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func(data []byte, err error)) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	var last [sha256.Size]byte
	var seen, missing bool
	reload := func() {
		data, err := os.ReadFile(target)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if !missing {
					missing = true
					onChange(nil, err)
				}
				return
			}
			logger.Warn("failed to read watched file", "path", path, "err", err)
			return
		}
		missing = false
		sum := sha256.Sum256(data)
		if seen && sum == last {
			return
		}
		seen, last = true, sum
		logger.Debug("flow file changed", "path", path)
		onChange(data, nil)
	}

	reload()
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "path", path, "err", err)
		case <-timer.C:
			reload()
		}
	}
}
