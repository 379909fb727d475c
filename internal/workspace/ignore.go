package workspace

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqfvm/language-server/pkg/config"
)

// ignoreList holds the parsed contents of ls-ignore.txt (spec.md §6):
// newline-separated literal paths, relative to the workspace root, whose
// subpaths are also ignored. Lines starting with "#" are comments.
type ignoreList struct {
	prefixes []string
}

// Ignores reports whether path (workspace-relative, forward-slash) is
// itself a listed entry or a subpath of one.
func (il *ignoreList) Ignores(path string) bool {
	if il == nil {
		return false
	}

	for _, p := range il.prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}

func (o *Orchestrator) loadIgnoreList() error {
	if err := os.MkdirAll(o.storeDir(), 0o755); err != nil {
		return err
	}

	path := filepath.Join(o.storeDir(), o.cfg.Workspace.IgnoreFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := os.WriteFile(path, []byte(config.DefaultIgnoreListTemplate), 0o644); werr != nil {
			return werr
		}

		data = []byte(config.DefaultIgnoreListTemplate)
	} else if err != nil {
		return err
	}

	o.ignore = parseIgnoreList(data)

	return nil
}

func parseIgnoreList(data []byte) *ignoreList {
	il := &ignoreList{}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimSuffix(filepath.ToSlash(line), "/")
		il.prefixes = append(il.prefixes, line)
	}

	return il
}
