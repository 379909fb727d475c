package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sqfvm/language-server/internal/analyzer"
	"github.com/sqfvm/language-server/internal/runtime"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/pkg/observability"
	"github.com/sqfvm/language-server/pkg/toposort"
)

// drainLocked implements spec.md §4.8's analysis pass: every outdated file
// is analyzed and committed, included files before the files that include
// them so an including file's preprocessor sees an up-to-date included
// text. Callers must already hold o.mu.
func (o *Orchestrator) drainLocked(ctx context.Context) error {
	outdated, err := o.outdatedFiles()
	if err != nil {
		return err
	}

	if len(outdated) == 0 {
		return nil
	}

	o.includeCache.Clear()

	factory := runtime.NewFactory(o.root, o.allMappings())
	factory.ContentCache = o.includeCache

	stats := observability.AnalysisStats{DiagnosticsBySeverity: map[string]int64{}}

	for _, path := range o.drainOrder(outdated) {
		if err := ctx.Err(); err != nil {
			break
		}

		o.analyzeOne(factory, path, &stats)
	}

	o.metrics.RecordRun(ctx, stats)

	return nil
}

func (o *Orchestrator) outdatedFiles() ([]string, error) {
	all, err := o.st.AllFilePaths()
	if err != nil {
		return nil, err
	}

	var out []string

	for _, p := range all {
		f, err := o.st.FindFileByPath(p)
		if err != nil {
			return nil, err
		}

		if f != nil && f.IsOutdated && !f.IsDeleted && !f.IsIgnored {
			out = append(out, p)
		}
	}

	return out, nil
}

// drainOrder topologically sorts outdated by the "includes" relation (an
// included file's node precedes the file including it). A cycle falls back
// to the unordered input rather than blocking analysis altogether.
func (o *Orchestrator) drainOrder(outdated []string) []string {
	g := toposort.NewGraph()

	for _, f := range outdated {
		g.AddNode(f)
	}

	for _, f := range outdated {
		includers, err := o.st.IncludingFilesOf(f)
		if err != nil {
			continue
		}

		for _, inc := range includers {
			g.AddNode(inc)
			g.AddEdge(f, inc)
		}
	}

	order, ok := g.Toposort()
	if !ok {
		if len(outdated) > 0 {
			if cycle := g.FindCycle(outdated[0]); len(cycle) > 1 {
				o.logf(store.SeverityWarning, "include cycle detected, analyzing in unordered fallback order: %s", strings.Join(cycle, " -> "))
			}
		}

		return outdated
	}

	outdatedSet := make(map[string]bool, len(outdated))
	for _, f := range outdated {
		outdatedSet[f] = true
	}

	result := make([]string, 0, len(outdated))

	for _, f := range order {
		if outdatedSet[f] {
			result = append(result, f)
		}
	}

	return result
}

func (o *Orchestrator) analyzeOne(factory *runtime.Factory, path string, stats *observability.AnalysisStats) {
	start := time.Now()

	file, err := o.st.FindFileByPath(path)
	if err != nil || file == nil {
		return
	}

	content, ok := o.historyCache.Get(path)
	if !ok {
		data, readErr := os.ReadFile(o.absPath(path))
		if readErr != nil {
			if markErr := o.st.MarkDeleted(path); markErr != nil {
				o.logf(store.SeverityError, "mark deleted %s: %v", path, markErr)
			}

			return
		}

		content = string(data)
		o.historyCache.Put(path, content)
	}

	an, ok := o.dispatch.For(path)
	if !ok {
		return
	}

	req := analyzer.Request{Path: path, Content: content, Runtime: factory, Scripts: o.scriptHost()}
	res := an.Analyze(req)

	if err := o.commit.Commit(o.st, file, res); err != nil {
		o.logf(store.SeverityError, "commit %s: %v", path, err)
		stats.CommitFailures++
	}

	stats.FilesAnalyzed++
	stats.AnalysisDuration = append(stats.AnalysisDuration, time.Since(start))

	for _, d := range res.Diagnostics {
		stats.DiagnosticsBySeverity[string(d.Severity)]++
	}

	if o.Publish != nil {
		diags, derr := o.st.DiagnosticsInFile(path)
		if derr == nil {
			o.Publish(path, diags)
		}
	}
}

// scriptHost returns o.scripts as an analyzer.ScriptHost, or a true nil
// interface when no scripted host is configured — a plain field access
// would instead produce an interface wrapping a nil *scripting.Host,
// which compares non-nil and crashes the first time it's called.
func (o *Orchestrator) scriptHost() analyzer.ScriptHost {
	if o.scripts == nil {
		return nil
	}

	return o.scripts
}

func (o *Orchestrator) absPath(rel string) string {
	return filepath.Join(o.root, filepath.FromSlash(rel))
}
