package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/pkg/config"
)

// watchLoop implements spec.md §4.8's watch loop: a non-recursive fsnotify
// watch per directory, re-registered as directories are created or removed,
// dispatching Created/Removed/Modified events into the store and triggering
// a drain pass after each batch. It runs until ctx is cancelled or the
// watcher is closed.
func (o *Orchestrator) watchLoop(ctx context.Context) {
	if err := o.registerDirsUnder(o.root); err != nil {
		o.logf(store.SeverityWarning, "register watch dirs: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-o.watcher.Events:
			if !ok {
				return
			}

			o.handleEvent(ev)

		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}

			o.logf(store.SeverityWarning, "watch: %v", err)
		}
	}
}

func (o *Orchestrator) registerDirsUnder(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(o.root, path)
		if relErr == nil && rel != "." && o.shouldSkipDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}

		return o.addWatch(path)
	})
}

func (o *Orchestrator) addWatch(dir string) error {
	if o.watchedDirs[dir] {
		return nil
	}

	if err := o.watcher.Add(dir); err != nil {
		return err
	}

	o.watchedDirs[dir] = true

	return nil
}

func (o *Orchestrator) removeWatch(dir string) {
	if !o.watchedDirs[dir] {
		return
	}

	_ = o.watcher.Remove(dir)
	delete(o.watchedDirs, dir)
}

// handleEvent maps one fsnotify event onto the store and, on anything that
// could change analysis output, runs a fresh drain pass. Each event is
// handled under the workspace mutex so it can never interleave with a
// drain already in progress.
func (o *Orchestrator) handleEvent(ev fsnotify.Event) {
	rel, err := filepath.Rel(o.root, ev.Name)
	if err != nil {
		return
	}

	rel = filepath.ToSlash(rel)
	if rel == "." || o.shouldSkipDir(filepath.Dir(rel)) || o.ignore.Ignores(rel) {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case ev.Op&fsnotify.Create != 0:
		o.onCreate(ev.Name, rel)
	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		o.onRemove(ev.Name, rel)
	case ev.Op&fsnotify.Write != 0:
		o.onModify(ev.Name, rel)
	default:
		return
	}

	if err := o.drainLocked(context.Background()); err != nil {
		o.logf(store.SeverityError, "drain after %s: %v", rel, err)
	}
}

func (o *Orchestrator) onCreate(absPath, rel string) {
	info, err := os.Stat(absPath)
	if err != nil {
		return
	}

	if info.IsDir() {
		if regErr := o.registerDirsUnder(absPath); regErr != nil {
			o.logf(store.SeverityWarning, "watch new dir %s: %v", rel, regErr)
		}

		return
	}

	o.markPathChanged(absPath, rel)
}

func (o *Orchestrator) onModify(absPath, rel string) {
	o.markPathChanged(absPath, rel)
}

func (o *Orchestrator) markPathChanged(absPath, rel string) {
	base := strings.ToLower(filepath.Base(rel))

	if base == strings.ToLower(o.cfg.Workspace.PathPrefixMarker) {
		mapping, err := readMarker(absPath, filepath.Dir(rel))
		if err != nil {
			o.logf(store.SeverityWarning, "read path-prefix marker %s: %v", rel, err)

			return
		}

		o.upsertLearnedMapping(mapping)

		if err := o.st.MarkAllOutdated(); err != nil {
			o.logf(store.SeverityError, "mark all outdated after marker change: %v", err)
		}

		return
	}

	if !o.dispatch.Registered(rel) {
		return
	}

	if err := o.markOutdatedAndPropagate(rel); err != nil {
		o.logf(store.SeverityError, "propagate change for %s: %v", rel, err)
	}
}

func (o *Orchestrator) onRemove(absPath, rel string) {
	existing, err := o.st.FindFileByPath(rel)
	if err != nil || existing == nil {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			o.removeWatch(absPath)

			return
		}

		return
	}

	if markErr := o.st.MarkDeleted(rel); markErr != nil {
		o.logf(store.SeverityError, "mark deleted %s: %v", rel, markErr)
	}

	if err := o.markOutdatedAndPropagate(rel); err != nil {
		o.logf(store.SeverityError, "propagate removal of %s: %v", rel, err)
	}
}

// upsertLearnedMapping replaces the learned mapping for mapping.Physical in
// place, or appends it, keeping one entry per marker directory.
func (o *Orchestrator) upsertLearnedMapping(mapping config.PathMapping) {
	for i, m := range o.learnedMaps {
		if m.Physical == mapping.Physical {
			o.learnedMaps[i] = mapping

			return
		}
	}

	o.learnedMaps = append(o.learnedMaps, mapping)
}
