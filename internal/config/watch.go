package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events an editor save produces.
var watchDebounce = 500 * time.Millisecond

// Watch reloads the settings with opts whenever one of Files is written and
// then calls onChange with the reload result. It returns once the watcher is
// running; watching stops when ctx ends. With no files loaded it does
// nothing.
func Watch(ctx context.Context, opts Options, onChange func(error)) error {
	files := make(map[string]bool)
	for _, f := range Files() {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch %s: %w", f, err)
		}
		files[abs] = true
	}
	if len(files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors often replace files by rename, so watch the directories.
	dirs := make(map[string]bool)
	for f := range files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	go watchLoop(ctx, watcher, files, opts, onChange)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, files map[string]bool, opts Options, onChange func(error)) {
	defer func() { _ = watcher.Close() }()

	var timer *time.Timer
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		err := Initialize(opts)
		if onChange != nil {
			onChange(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if onChange != nil {
				onChange(fmt.Errorf("watch config: %w", err))
			}
		}
	}
}
