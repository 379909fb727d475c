// Package workspace implements the workspace orchestrator (spec.md §4.8,
// C10): the initial scan, the fsnotify watch loop, related-files
// propagation, the outdated-file drain (analysis) pass, and the read-only
// editor queries that sit in front of internal/store (C1). It is the only
// component that holds the workspace-wide mutex spec.md §5 requires —
// every analyze+commit runs with it held, matching the teacher's own
// "one mutex guards one coordinator" shape (internal/northstar's indexer).
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel/metric"

	"github.com/sqfvm/language-server/internal/analyzer"
	"github.com/sqfvm/language-server/internal/commit"
	"github.com/sqfvm/language-server/internal/scripting"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/pkg/alg/lru"
	"github.com/sqfvm/language-server/pkg/config"
	"github.com/sqfvm/language-server/pkg/observability"
	"github.com/sqfvm/language-server/pkg/persist"
)

const (
	includeCacheEntries = 1024
	historyCacheEntries = 1024
)

// PublishFunc delivers one file's current (post-commit) non-suppressed
// Diagnostics to the editor, i.e. `textDocument/publishDiagnostics`
// (spec.md §6). Set by internal/lsp after construction; nil is a valid
// no-op for headless/CLI use (cmd/sqfvm-lsp's scan mode).
type PublishFunc func(file string, diagnostics []*store.Diagnostic)

// LogFunc delivers one `window/logMessage` entry (spec.md §7's catch-all
// for I/O and configuration errors that are not attributable to a single
// file's Diagnostics).
type LogFunc func(severity store.Severity, message string)

// Orchestrator is C10. One Orchestrator exists per open workspace; the
// cmd/sqfvm-lsp `serve` subcommand constructs exactly one and hands it to
// internal/lsp.Server.
type Orchestrator struct {
	mu sync.Mutex

	root string
	cfg  *config.Config
	st   *store.Store

	dispatch *analyzer.Dispatch
	commit   *commit.Coordinator
	scripts  *scripting.Host // nil unless the scripted-analyzer marker file is present

	logger  *slog.Logger
	metrics *observability.AnalysisMetrics

	includeCache *lru.Cache[string, string] // resolved include path -> content, cleared each drain pass
	historyCache *lru.Cache[string, string] // file path -> last-read disk content

	mappings     *persist.Persister[pathMappingSnapshot]
	learnedMaps  []config.PathMapping // from $PBOPREFIX$ marker files, survives didChangeConfiguration
	ignore       *ignoreList

	watcher     *fsnotify.Watcher
	watchedDirs map[string]bool

	Publish PublishFunc
	Log     LogFunc
}

// New constructs an Orchestrator rooted at root. logger and meter come from
// pkg/observability.Init; the caller is responsible for calling Close when
// the workspace is torn down.
func New(root string, cfg *config.Config, st *store.Store, logger *slog.Logger, meter metric.Meter) (*Orchestrator, error) {
	metrics, err := observability.NewAnalysisMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("workspace: build analysis metrics: %w", err)
	}

	includeCache := lru.New[string, string](lru.WithMaxEntries[string, string](includeCacheEntries))
	historyCache := lru.New[string, string](lru.WithMaxEntries[string, string](historyCacheEntries))

	if regErr := observability.RegisterCacheMetrics(meter, includeCache, historyCache); regErr != nil {
		return nil, fmt.Errorf("workspace: register cache metrics: %w", regErr)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("workspace: create watcher: %w", err)
	}

	o := &Orchestrator{
		root:         filepath.Clean(root),
		cfg:          cfg,
		st:           st,
		dispatch:     analyzer.NewDispatch(),
		commit:       commit.New(),
		logger:       logger,
		metrics:      metrics,
		includeCache: includeCache,
		historyCache: historyCache,
		mappings:     persist.NewPersister[pathMappingSnapshot]("path-mappings", persist.NewJSONCodec()),
		watcher:      watcher,
		watchedDirs:  make(map[string]bool),
	}

	return o, nil
}

func (o *Orchestrator) storeDir() string {
	return filepath.Join(o.root, o.cfg.Workspace.StoreDirName)
}

// Start runs the initial scan (spec.md §4.8) and begins the fsnotify watch
// loop in a background goroutine. It blocks for the initial scan and the
// first drain pass over the files that scan marked outdated.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.loadLearnedMappings(); err != nil {
		o.logf(store.SeverityWarning, "load path-mapping snapshot: %v", err)
	}

	if err := o.loadIgnoreList(); err != nil {
		o.logf(store.SeverityWarning, "load ignore list: %v", err)
	}

	if scriptedMarkerPresent(o.storeDir(), o.cfg.Workspace.ScriptedMarkerName) {
		o.scripts = scripting.NewHost(filepath.Join(o.storeDir(), "scripted", "analyzers"))
	}

	if err := o.scan(); err != nil {
		return fmt.Errorf("workspace: initial scan: %w", err)
	}

	if err := o.saveLearnedMappings(); err != nil {
		o.logf(store.SeverityWarning, "save path-mapping snapshot: %v", err)
	}

	go o.watchLoop(ctx)

	return o.drainLocked(ctx)
}

// Drain runs drainLocked under the workspace mutex. Callers outside the
// package (cmd/sqfvm-lsp's headless scan mode) use this; internal call
// sites that already hold the mutex call drainLocked directly.
func (o *Orchestrator) Drain(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.drainLocked(ctx)
}

// Close stops the watch loop and releases the fsnotify watcher. It does not
// close the Store; the caller owns that lifetime.
func (o *Orchestrator) Close() error {
	return o.watcher.Close()
}

// allMappings combines workspace-configured mappings (from
// Executable.PathMappings, replaced wholesale by didChangeConfiguration)
// with mappings learned from $PBOPREFIX$ marker files (spec.md §6:
// "non-workspace mappings ... are preserved").
func (o *Orchestrator) allMappings() []config.PathMapping {
	out := make([]config.PathMapping, 0, len(o.cfg.Workspace.PathMappings)+len(o.learnedMaps))
	out = append(out, o.cfg.Workspace.PathMappings...)
	out = append(out, o.learnedMaps...)

	return out
}

// ApplyWorkspaceConfiguration implements the `workspace/didChangeConfiguration`
// side of spec.md §6: replaces the workspace-scoped path mappings and marks
// the whole workspace outdated, since include resolution may now behave
// differently for every file.
func (o *Orchestrator) ApplyWorkspaceConfiguration(mappings []config.PathMapping) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cfg.ApplyWorkspacePathMappings(mappings)

	if err := o.st.MarkAllOutdated(); err != nil {
		return fmt.Errorf("workspace: mark all outdated after configuration change: %w", err)
	}

	return o.drainLocked(context.Background())
}

func (o *Orchestrator) logf(sev store.Severity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	switch sev {
	case store.SeverityFatal, store.SeverityError:
		o.logger.Error(msg)
	case store.SeverityWarning:
		o.logger.Warn(msg)
	default:
		o.logger.Info(msg)
	}

	if o.Log != nil {
		o.Log(sev, msg)
	}
}

func scriptedMarkerPresent(storeDir, markerName string) bool {
	_, err := os.Stat(filepath.Join(storeDir, markerName))

	return err == nil
}

// pathMappingSnapshot is the persisted shape of the learned (non-workspace)
// path-mapping table (SPEC_FULL §4.9's `.vscode/sqfvm-lsp/path-mappings.json`).
type pathMappingSnapshot struct {
	Mappings []config.PathMapping `json:"mappings"`
}

func (o *Orchestrator) loadLearnedMappings() error {
	return o.mappings.Load(o.storeDir(), func(s *pathMappingSnapshot) {
		o.learnedMaps = s.Mappings
	})
}

func (o *Orchestrator) saveLearnedMappings() error {
	return o.mappings.Save(o.storeDir(), func() *pathMappingSnapshot {
		return &pathMappingSnapshot{Mappings: o.learnedMaps}
	})
}
