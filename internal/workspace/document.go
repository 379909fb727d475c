package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sqfvm/language-server/internal/store"
)

// NotifyDocument implements the editor-provided-content side of
// `textDocument/didOpen`, `didChange`, and `didSave` (spec.md §3's
// FileHistory "is_external=false" case, spec.md §6's full-text-sync
// capability): it records path's current full text as a new FileHistory
// snapshot, marks the file (and everything related to it) outdated, and
// drains. internal/lsp is the only caller; rel must already be a
// normalized, workspace-relative, forward-slash path.
func (o *Orchestrator) NotifyDocument(rel, content string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ignore.Ignores(rel) || o.shouldSkipDir(filepath.Dir(rel)) || !o.dispatch.Registered(rel) {
		return nil
	}

	existing, err := o.st.FindFileByPath(rel)
	if err != nil {
		return fmt.Errorf("workspace: find file %s: %w", rel, err)
	}

	file := existing
	if file == nil {
		file = &store.File{Path: rel}
	}

	file.ModifiedAt = time.Now().UTC()
	file.IsOutdated = true
	file.IsDeleted = false
	file.IsIgnored = false

	if err := o.st.UpsertFile(file); err != nil {
		return fmt.Errorf("workspace: upsert file %s: %w", rel, err)
	}

	o.historyCache.Put(rel, content)

	if err := o.st.InsertFileHistory(&store.FileHistory{
		FileID:     file.ID,
		Content:    content,
		CreatedAt:  time.Now(),
		IsExternal: false,
	}); err != nil {
		return fmt.Errorf("workspace: snapshot editor content for %s: %w", rel, err)
	}

	if err := o.markOutdatedAndPropagate(rel); err != nil {
		return fmt.Errorf("workspace: propagate change for %s: %w", rel, err)
	}

	return o.drainLocked(context.Background())
}
