package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// pathFromURI converts a `file://` document URI, as delivered by every
// textDocument/* notification spec.md §6 lists, into a workspace-relative,
// forward-slash path. Grounded on the same "strip scheme, URL-decode, make
// relative to root" idiom the teacher's pkg/uast/lsp keeps (there, as a flat
// URI->content map key; here the Orchestrator needs a workspace-relative
// path instead).
func pathFromURI(root, uri string) string {
	trimmed := strings.TrimPrefix(uri, "file://")

	if decoded, err := url.PathUnescape(trimmed); err == nil {
		trimmed = decoded
	}

	if filepath.IsAbs(trimmed) {
		if rel, err := filepath.Rel(root, trimmed); err == nil {
			return filepath.ToSlash(rel)
		}
	}

	return filepath.ToSlash(trimmed)
}

// uriFromPath is pathFromURI's inverse: a workspace-relative path becomes an
// absolute `file://` URI rooted at root.
func uriFromPath(root, path string) string {
	abs := filepath.Join(root, filepath.FromSlash(path))

	return "file://" + filepath.ToSlash(abs)
}
