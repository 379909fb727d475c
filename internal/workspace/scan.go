package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/pkg/config"
	"github.com/sqfvm/language-server/pkg/textutil"
)

// scan implements spec.md §4.8's initial scan: walk the workspace, register
// or update a File row (with FileHistory snapshot on content change) for
// every file whose extension has a registered analyzer, and discover every
// $PBOPREFIX$ marker along the way.
func (o *Orchestrator) scan() error {
	var learned []config.PathMapping

	err := filepath.WalkDir(o.root, func(absPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			o.logf(store.SeverityWarning, "scan %s: %v", absPath, walkErr)

			return nil
		}

		rel, relErr := filepath.Rel(o.root, absPath)
		if relErr != nil {
			return nil
		}

		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if o.shouldSkipDir(rel) {
				return filepath.SkipDir
			}

			return nil
		}

		if o.ignore.Ignores(rel) {
			return nil
		}

		base := strings.ToLower(filepath.Base(rel))
		if base == strings.ToLower(o.cfg.Workspace.PathPrefixMarker) {
			mapping, mErr := readMarker(absPath, filepath.Dir(rel))
			if mErr != nil {
				o.logf(store.SeverityWarning, "read path-prefix marker %s: %v", rel, mErr)

				return nil
			}

			learned = append(learned, mapping)

			return nil
		}

		if !o.dispatch.Registered(rel) {
			return nil
		}

		return o.scanFile(absPath, rel, d)
	})
	if err != nil {
		return err
	}

	o.learnedMaps = learned

	return nil
}

func (o *Orchestrator) shouldSkipDir(rel string) bool {
	if rel == ".git" || rel == o.cfg.Workspace.StoreDirName {
		return true
	}

	return o.ignore.Ignores(rel)
}

// scanFile registers or refreshes one analyzable file's File row,
// snapshotting its content into FileHistory when its on-disk mtime moved
// past the stored one (spec.md §4.8).
func (o *Orchestrator) scanFile(absPath, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return nil
	}

	existing, err := o.st.FindFileByPath(rel)
	if err != nil {
		return fmt.Errorf("find file %s: %w", rel, err)
	}

	modTime := info.ModTime().UTC()
	unchanged := existing != nil && !modTime.After(existing.ModifiedAt)

	file := existing
	if file == nil {
		file = &store.File{Path: rel}
	}

	file.ModifiedAt = modTime
	file.IsDeleted = false

	if !unchanged {
		file.IsOutdated = true

		data, readErr := os.ReadFile(absPath)
		if readErr != nil {
			o.logf(store.SeverityWarning, "read %s: %v", rel, readErr)
			file.IsIgnored = true
		} else if textutil.IsBinary(data) {
			file.IsIgnored = true
		} else {
			file.IsIgnored = false
			o.historyCache.Put(rel, string(data))
		}
	}

	if err := o.st.UpsertFile(file); err != nil {
		return fmt.Errorf("upsert file %s: %w", rel, err)
	}

	if !unchanged && !file.IsIgnored {
		if err := o.st.InsertFileHistory(&store.FileHistory{
			FileID:    file.ID,
			Content:   mustGet(o.historyCache, rel),
			CreatedAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("snapshot history for %s: %w", rel, err)
		}
	}

	return nil
}

func mustGet(cache interface{ Get(string) (string, bool) }, key string) string {
	v, _ := cache.Get(key)

	return v
}

// readMarker parses a $PBOPREFIX$ file's content as the virtual prefix its
// containing directory (dir, workspace-relative) maps to (spec.md §6).
func readMarker(absPath, dir string) (config.PathMapping, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return config.PathMapping{}, err
	}

	virtual := strings.TrimSpace(string(data))
	if dir == "." {
		dir = ""
	}

	return config.PathMapping{Physical: dir, Virtual: virtual}, nil
}
