package preset

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with the reloaded preset each time the file at path
// is written or recreated, until ctx is done. Files that fail to parse are
// logged and skipped.
//
// The directory is watched instead of the file, because editors often
// replace the file on save.
func Watch(ctx context.Context, path string, onChange func(*Preset)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Printf("failed to close watcher: %v\n", err)
		}
	}()
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	log.Printf("watching %s\n", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !isReloadEvent(event) {
				continue
			}
			p, err := LoadFile(path)
			if err != nil {
				log.Printf("WARN: failed to reload preset: %v\n", err)
				continue
			}
			log.Printf("reloaded %s\n", path)
			onChange(p)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("WARN: watcher error: %v\n", err)
		}
	}
}

func isReloadEvent(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}
