package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesAnalyzedTotal  = "sqfvm.analysis.files.total"
	metricDiagnosticsTotal    = "sqfvm.analysis.diagnostics.total"
	metricAnalysisDuration    = "sqfvm.analysis.file.duration.seconds"
	metricCommitsTotal        = "sqfvm.analysis.commits.total"
	metricCommitFailuresTotal = "sqfvm.analysis.commit_failures.total"

	attrSeverity = "severity"
)

// AnalysisMetrics holds OTel instruments for the per-file analyze+commit
// pipeline (spec §4.5-§4.7).
type AnalysisMetrics struct {
	filesTotal       metric.Int64Counter
	diagnosticsTotal metric.Int64Counter
	analysisDuration metric.Float64Histogram
	commitsTotal     metric.Int64Counter
	commitFailures   metric.Int64Counter
}

// AnalysisStats holds the statistics for one drain pass over the outdated
// file set (spec §4.8's "analysis pass").
type AnalysisStats struct {
	FilesAnalyzed         int64
	CommitFailures        int64
	AnalysisDuration      []time.Duration
	DiagnosticsBySeverity map[string]int64
}

// NewAnalysisMetrics creates analysis metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	files, err := mt.Int64Counter(metricFilesAnalyzedTotal,
		metric.WithDescription("Total files analyzed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesAnalyzedTotal, err)
	}

	diagnostics, err := mt.Int64Counter(metricDiagnosticsTotal,
		metric.WithDescription("Total diagnostics published, by severity"),
		metric.WithUnit("{diagnostic}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiagnosticsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricAnalysisDuration,
		metric.WithDescription("Per-file analyze+commit duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAnalysisDuration, err)
	}

	commits, err := mt.Int64Counter(metricCommitsTotal,
		metric.WithDescription("Total successful commit-coordinator runs"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsTotal, err)
	}

	commitFailures, err := mt.Int64Counter(metricCommitFailuresTotal,
		metric.WithDescription("Total rolled-back commits recorded as VV-ERR"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitFailuresTotal, err)
	}

	return &AnalysisMetrics{
		filesTotal:       files,
		diagnosticsTotal: diagnostics,
		analysisDuration: duration,
		commitsTotal:     commits,
		commitFailures:   commitFailures,
	}, nil
}

// RecordRun records analysis statistics for one completed drain pass.
// Safe to call on a nil receiver (no-op).
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	am.filesTotal.Add(ctx, stats.FilesAnalyzed)
	am.commitsTotal.Add(ctx, stats.FilesAnalyzed-stats.CommitFailures)
	am.commitFailures.Add(ctx, stats.CommitFailures)

	for _, d := range stats.AnalysisDuration {
		am.analysisDuration.Record(ctx, d.Seconds())
	}

	for severity, count := range stats.DiagnosticsBySeverity {
		am.diagnosticsTotal.Add(ctx, count, metric.WithAttributes(attribute.String(attrSeverity, severity)))
	}
}
