// Package filewatch reports changes to a single file.
package filewatch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pkt.systems/codepane/internal/logx"
)

// DefaultSettle coalesces bursts of events such as write-then-chmod saves.
const DefaultSettle = 50 * time.Millisecond

// Watch calls onChange after the file at path is written, created or
// replaced, once no further event arrived for settle. The parent directory is
// watched so that editors saving via rename are seen. Watch blocks until ctx
// is done.
func Watch(ctx context.Context, path string, settle time.Duration, onChange func()) error {
	if settle <= 0 {
		settle = DefaultSettle
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	log := logx.Ctx(ctx).With("path", abs)
	log.Debug("filewatch started")

	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("filewatch stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Trace("filewatch event", "op", event.Op.String())
			timer.Reset(settle)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Warn("filewatch error", "err", werr)
		case <-timer.C:
			onChange()
		}
	}
}
