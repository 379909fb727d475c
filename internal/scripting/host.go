// Package scripting implements the scripted extension host (spec §4.9,
// C11): an optional, per-file-extension set of user-editable Go scripts
// run through the pure-Go github.com/traefik/yaegi interpreter, grounded on
// the retrieval pack's theRebelliousNerd-codenerd YaegiExecutor (same
// "interpret instead of go build" idiom, here exposing a fixed AST-handle
// vocabulary as Use'd symbols rather than a single RunTool entrypoint).
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqfvm/language-server/internal/analyzer"
)

const readmeFileName = "ReadMe.md"

// Host materializes and compiles scripted analyzers under one workspace's
// scripted-analyzers root (spec.md §6: "materializes scripts under
// .vscode/sqfvm-lsp/scripted/analyzers/<ext>/"). The workspace orchestrator
// only constructs a Host, and only passes it to an analyzer.Request, when
// the use_scripted_analyzers marker file is present (spec.md §4.9: "gated
// by a marker file") — Host itself has no opinion on that gate.
type Host struct {
	root string
}

// NewHost constructs a Host rooted at root (typically
// <store-dir>/scripted/analyzers).
func NewHost(root string) *Host {
	return &Host{root: root}
}

// NewSession implements analyzer.ScriptHost. It materializes ext's script
// directory (writing template bodies and the README on first use) and
// returns a fresh Session; compilation happens lazily in Session.Start so
// the host vocabulary can bind to that analysis's view.
func (h *Host) NewSession(file string) (analyzer.Scripted, error) {
	ext := extOf(file)
	dir := filepath.Join(h.root, ext)

	if err := materialize(dir); err != nil {
		return nil, fmt.Errorf("scripting: materialize %s: %w", dir, err)
	}

	return newSession(dir), nil
}

func extOf(file string) string {
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	if ext == "" {
		return "noext"
	}

	return ext
}

// materialize creates dir if needed, writes any missing phase template,
// and writes the README once (spec.md §6).
func materialize(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, phase := range phases {
		path := filepath.Join(dir, phase.fileName())

		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return err
		}

		if err := os.WriteFile(path, []byte(phase.templateBody()), 0o644); err != nil {
			return err
		}
	}

	readmePath := filepath.Join(dir, readmeFileName)

	if _, err := os.Stat(readmePath); os.IsNotExist(err) {
		if werr := os.WriteFile(readmePath, []byte(readmeBody), 0o644); werr != nil {
			return werr
		}
	}

	return nil
}
