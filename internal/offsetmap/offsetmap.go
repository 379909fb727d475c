// Package offsetmap implements the preprocessor-offset map (spec §4.3): the
// bidirectional index between raw source locations and preprocessed byte
// offsets that the macro expander emits one (start, end) pair for per
// expansion.
//
// Query support is backed by the teacher's generic interval tree
// (github.com/sqfvm/language-server/pkg/alg/interval), which already gives
// O(log n) overlap/point queries; the map only adds the "containing start,
// raw length" decode semantics the generic tree does not know about.
package offsetmap

import (
	"sort"

	"github.com/sqfvm/language-server/pkg/alg/interval"
)

// Location is a raw-source position: line/column plus the file path the
// macro expansion originated in (an #include'd macro can expand into text
// attributed to a different file than the one being analyzed).
type Location struct {
	File   string
	Line   int
	Column int
	Offset int
}

// entry is one macro-expansion record: the preprocessed span it occupies,
// and the raw location the start of that span decodes to.
type entry struct {
	start, end int
	raw        Location
	rawLength  int
}

// Map stores offset-map entries sorted by preprocessed start offset and
// answers InMacro/Decode queries against them. One Map exists per analysis
// of one file (spec §4.3's "emitted by the preprocessor"); it is never
// shared or persisted.
type Map struct {
	entries []entry
	tree    *interval.Tree[int, int] // preprocessed [start,end) -> index into entries
	dirty   bool
}

// New creates an empty offset map.
func New() *Map {
	return &Map{tree: interval.New[int, int]()}
}

// Record adds one macro-expansion's (raw-start, preprocessed-start,
// preprocessed-end, raw-length) quadruple. rawLength is the length, in raw
// source bytes, of the macro invocation this expansion replaced; it is what
// Decode returns for any offset inside the expansion.
func (m *Map) Record(raw Location, preStart, preEnd, rawLength int) {
	idx := len(m.entries)
	m.entries = append(m.entries, entry{
		start: preStart, end: preEnd, raw: raw, rawLength: rawLength,
	})

	if preEnd > preStart {
		m.tree.Insert(preStart, preEnd-1, idx)
	}

	m.dirty = true
}

func (m *Map) ensureSorted() {
	if !m.dirty {
		return
	}

	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].start < m.entries[j].start })

	// Sorting moves entries, so the tree's stored indices are rebuilt.
	m.tree = interval.New[int, int]()

	for i, e := range m.entries {
		if e.end > e.start {
			m.tree.Insert(e.start, e.end-1, i)
		}
	}

	m.dirty = false
}

// InMacro reports whether preprocessed offset o lies strictly inside a
// recorded expansion (between its start pair and its following end pair),
// per spec §4.3.
func (m *Map) InMacro(o int) bool {
	_, ok := m.containing(o)

	return ok
}

// Decode returns the raw location associated with the containing
// expansion's start, and the macro's total raw length. Offsets at or after
// an expansion's end decode to that expansion's end location with length 0
// (spec §4.3: "after-end offsets decode to the end pair's raw location with
// length 0").
func (m *Map) Decode(o int) (Location, int) {
	if e, ok := m.containing(o); ok {
		return e.raw, e.rawLength
	}

	m.ensureSorted()

	// Find the nearest expansion whose end is <= o; offsets past it decode
	// to its end location with zero length.
	idx := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].end > o })
	if idx > 0 {
		e := m.entries[idx-1]
		endLoc := e.raw
		endLoc.Offset += e.rawLength

		return endLoc, 0
	}

	return Location{}, 0
}

// containing returns the expansion entry strictly containing offset o.
func (m *Map) containing(o int) (entry, bool) {
	m.ensureSorted()

	best := -1

	for _, hit := range m.tree.QueryPoint(o) {
		idx := hit.Value
		e := m.entries[idx]

		if o > e.start && o < e.end {
			if best == -1 || e.start > m.entries[best].start {
				best = idx
			}
		}
	}

	if best == -1 {
		return entry{}, false
	}

	return m.entries[best], true
}

// Len returns the number of recorded expansions.
func (m *Map) Len() int { return len(m.entries) }
