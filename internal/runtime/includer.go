package runtime

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sqfvm/language-server/pkg/alg/lru"
	"github.com/sqfvm/language-server/pkg/config"
)

// Includer resolves `#include "path"` / `#include <path>` directives
// (spec §4.3/§4.4's "wires path mappings") against the workspace root, the
// including file's own directory, and the active virtual-prefix table —
// workspace-scoped mappings from Executable.PathMappings plus any learned
// from `$PBOPREFIX$` marker files (spec §6). Angled includes (`<path>`) are
// resolved through the mapping table and then the workspace root; quoted
// includes try the including file's directory before those, matching the
// target language's own preprocessor semantics.
type Includer struct {
	Root     string
	Mappings []config.PathMapping

	// Cache, when set, holds resolved-path -> content pairs so repeatedly
	// including the same unchanged file within one drain pass (C10, SPEC_FULL
	// §4.9) skips the disk read. The orchestrator owns the cache's lifetime
	// and clears it at the start of each drain pass, so content read in one
	// pass is never served in a later pass.
	Cache *lru.Cache[string, string]
}

// Resolve implements preprocess.Includer.
func (inc *Includer) Resolve(fromFile, includePath string, angled bool) (string, string, error) {
	includePath = filepath.ToSlash(includePath)

	var candidates []string

	if !angled {
		dir := filepath.ToSlash(filepath.Dir(fromFile))
		candidates = append(candidates, path.Join(inc.Root, dir, includePath))
	}

	for _, m := range inc.Mappings {
		if rel, ok := stripVirtualPrefix(includePath, m.Virtual); ok {
			candidates = append(candidates, path.Join(inc.Root, m.Physical, rel))
		}
	}

	candidates = append(candidates, path.Join(inc.Root, includePath))

	for _, c := range candidates {
		rel, relErr := filepath.Rel(inc.Root, c)
		if relErr != nil {
			rel = c
		}

		rel = filepath.ToSlash(rel)

		if inc.Cache != nil {
			if content, ok := inc.Cache.Get(rel); ok {
				return rel, content, nil
			}
		}

		data, err := os.ReadFile(filepath.FromSlash(c))
		if err != nil {
			continue
		}

		content := string(data)

		if inc.Cache != nil {
			inc.Cache.Put(rel, content)
		}

		return rel, content, nil
	}

	return "", "", fmt.Errorf("runtime: cannot resolve include %q from %q", includePath, fromFile)
}

// stripVirtualPrefix reports whether includePath is rooted under virtual
// (a path-prefix marker's declared prefix, spec §6) and, if so, returns the
// remaining suffix to join against the mapping's physical directory.
func stripVirtualPrefix(includePath, virtual string) (string, bool) {
	virtual = strings.Trim(filepath.ToSlash(virtual), "/")
	if virtual == "" {
		return "", false
	}

	trimmed := strings.TrimPrefix(strings.Trim(includePath, "/"), virtual)
	if trimmed == strings.Trim(includePath, "/") {
		return "", false
	}

	return strings.TrimPrefix(trimmed, "/"), true
}
