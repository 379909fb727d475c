package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// probeTraceID is a fixed, non-zero trace ID used only to evaluate a
// sampler's root-span decision; its value is irrelevant for every sampler
// Init can select (always-on/off, parent-based, or a 1.0/0.0 ratio), which
// is all ProbeSamplerSpan's callers exercise.
var probeTraceID = trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

// ProbeBuildResource exposes buildResource for tests verifying the OTel
// resource carries this package's custom attributes (app.mode and friends).
func ProbeBuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// ProbeSamplerSpan exposes selectSampler's effective decision for tests:
// true if a root span (no parent context) would be sampled under cfg.
func ProbeSamplerSpan(cfg Config) bool {
	sampler := selectSampler(cfg)

	result := sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       probeTraceID,
		Name:          "probe",
		Kind:          trace.SpanKindInternal,
	})

	return result.Decision == sdktrace.RecordAndSample
}
