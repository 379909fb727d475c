package analyzer

import (
	"path/filepath"
	"strings"
)

// Constructor builds a fresh Analyzer instance. Dispatch calls this once
// per analysis so analyzer-local state (e.g. the shared visitor.Framework)
// never leaks between files.
type Constructor func() Analyzer

// Dispatch maps a file extension, or one of a fixed set of canonical
// filenames, to an Analyzer constructor (spec §4.4: "a mapping from file
// extension to a constructor ... with a filename filter that restricts the
// configuration analyzer to two canonical filenames").
type Dispatch struct {
	byExt      map[string]Constructor
	byFilename map[string]Constructor
}

// NewDispatch constructs the core registry: the target-language extension
// and the two canonical config filenames (SPEC_FULL §4.4: `description.ext`
// and `config.cpp`).
func NewDispatch() *Dispatch {
	d := &Dispatch{
		byExt:      make(map[string]Constructor),
		byFilename: make(map[string]Constructor),
	}

	d.RegisterExt(".sqf", func() Analyzer { return NewSQFAnalyzer() })
	d.RegisterFilename("description.ext", func() Analyzer { return NewConfigAnalyzer() })
	d.RegisterFilename("config.cpp", func() Analyzer { return NewConfigAnalyzer() })

	return d
}

// RegisterExt registers a constructor for a lowercase file extension
// (including the leading dot, e.g. ".sqf").
func (d *Dispatch) RegisterExt(ext string, c Constructor) {
	d.byExt[strings.ToLower(ext)] = c
}

// RegisterFilename registers a constructor for an exact, lowercase base
// filename.
func (d *Dispatch) RegisterFilename(name string, c Constructor) {
	d.byFilename[strings.ToLower(name)] = c
}

// For returns a fresh Analyzer for path, or (nil, false) if no analyzer is
// registered for it. Filename matches take priority over extension matches,
// matching spec §4.4's filter semantics (a config file named
// "description.ext" is not dispatched by its ".ext" extension).
func (d *Dispatch) For(path string) (Analyzer, bool) {
	base := strings.ToLower(filepath.Base(path))

	if c, ok := d.byFilename[base]; ok {
		return c(), true
	}

	ext := strings.ToLower(filepath.Ext(path))

	if c, ok := d.byExt[ext]; ok {
		return c(), true
	}

	return nil, false
}

// Registered reports whether path has any registered analyzer, without
// constructing one — used by the initial scan and watcher to decide
// whether a file is part of the analysis universe at all (spec §4.8).
func (d *Dispatch) Registered(path string) bool {
	_, ok := d.For(path)

	return ok
}
