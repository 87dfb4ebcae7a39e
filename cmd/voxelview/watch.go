package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of events an editor save produces.
const settleDelay = 150 * time.Millisecond

// sceneWatcher re-renders a scene when its file or one of its texture
// directories changes.
type sceneWatcher struct {
	w      *fsnotify.Watcher
	dirs   map[string]bool
	output string // absolute; events for it are the watcher's own writes
}

// newSceneWatcher watches the scene file's directory and dirs. output is
// the file each render writes; "-" or "" means none.
func newSceneWatcher(scenePath, output string, dirs []string) (*sceneWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sw := &sceneWatcher{w: w, dirs: make(map[string]bool)}
	if output != "" && output != "-" {
		if sw.output, err = filepath.Abs(output); err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := sw.add(append([]string{filepath.Dir(scenePath)}, dirs...)); err != nil {
		w.Close()
		return nil, err
	}
	return sw, nil
}

// add starts watching the directories not yet watched.
func (sw *sceneWatcher) add(dirs []string) error {
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return err
		}
		if sw.dirs[abs] {
			continue
		}
		if err := sw.w.Add(abs); err != nil {
			return err
		}
		sw.dirs[abs] = true
		log.Printf("Watching %s", abs)
	}
	return nil
}

// run calls render after relevant changes until ctx is done or the watcher
// fails. render returns the texture directories of the scene it loaded,
// which are watched from then on.
func (sw *sceneWatcher) run(ctx context.Context, render func() []string) error {
	defer sw.w.Close()
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sw.w.Events:
			if !ok {
				return nil
			}
			if sw.triggers(ev) {
				pending = time.After(settleDelay)
			}
		case err, ok := <-sw.w.Errors:
			if !ok {
				return nil
			}
			return err
		case <-pending:
			pending = nil
			if err := sw.add(render()); err != nil {
				log.Printf("watch: %v", err)
			}
		}
	}
}

// triggers reports whether ev can change the rendered image.
func (sw *sceneWatcher) triggers(ev fsnotify.Event) bool {
	if sw.output != "" {
		if abs, err := filepath.Abs(ev.Name); err == nil && abs == sw.output {
			return false
		}
	}
	return triggers(ev)
}

// triggers reports whether ev touches a scene or image file.
func triggers(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	switch filepath.Ext(ev.Name) {
	case ".toml", ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return true
	}
	return false
}
