package runtime

import (
	"fmt"
	"strings"

	"github.com/sqfvm/language-server/internal/offsetmap"
	"github.com/sqfvm/language-server/internal/suppress"
)

// view is the AnalyzerView (spec §9's capability object) handed into every
// visitor hook. No pointer to the Runtime or Factory crosses this boundary —
// visitors see exactly this narrow surface and nothing else.
type view struct {
	file    string
	text    string
	offsets *offsetmap.Map
	supp    *suppress.Context
}

// File implements visitor.AnalyzerView.
func (v *view) File() string { return v.file }

// Text implements visitor.AnalyzerView.
func (v *view) Text() string { return v.text }

// InMacro implements visitor.AnalyzerView.
func (v *view) InMacro(o int) bool { return v.offsets.InMacro(o) }

// Decode implements visitor.AnalyzerView.
func (v *view) Decode(o int) (offsetmap.Location, int) { return v.offsets.Decode(o) }

// CanReport implements visitor.AnalyzerView.
func (v *view) CanReport(code string, line int) bool {
	return v.supp.CanReport(code, v.file, line)
}

// ScopeTag implements visitor.AnalyzerView, building the hierarchical scope
// string `scope@<file>://<child>/<child>/...` spec §3 defines for Variable.Scope.
// The file's normalized workspace path stands in for the spec's opaque
// "<file-id>" component — stable, unique per file, and legible in the store
// without a join back to the files table.
func (v *view) ScopeTag(childPath []int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "scope@%s://", v.file)

	for i, c := range childPath {
		if i > 0 {
			b.WriteByte('/')
		}

		fmt.Fprintf(&b, "%d", c)
	}

	return b.String()
}
