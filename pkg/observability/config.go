package observability

import "log/slog"

// AppMode identifies which entrypoint emitted a given signal — attached to
// every log line and span resource as "mode" / "app.mode" so a shared
// backend can tell the LSP server's own telemetry apart from that of other
// callers of Init, which keep DefaultConfig's CLI mode.
type AppMode string

const (
	// ModeCLI is DefaultConfig's mode, for telemetry outside the `serve`
	// subcommand; the binary's only other command, `version`, does not call Init.
	ModeCLI AppMode = "cli"
	// ModeLSP marks telemetry from the long-running editor-facing server
	// (cmd/sqfvm-lsp's `serve` subcommand).
	ModeLSP AppMode = "lsp"
	// ModeMCP marks telemetry from the scripted-extension host surfaced as
	// a narrow tool-call interface (kept for parity with the teacher's own
	// MCP-mode resource attribute; this server does not currently run one).
	ModeMCP AppMode = "mcp"
)

// defaultShutdownTimeoutSec bounds how long Providers.Shutdown waits for
// pending spans/metrics to flush before giving up.
const defaultShutdownTimeoutSec = 5

// Config configures Init's tracing, metrics, and logging providers. The
// zero value is usable but DefaultConfig fills in the workspace-analysis
// defaults (info logging to stderr, no-op exporters, CLI mode).
type Config struct {
	// ServiceName/ServiceVersion/Environment populate the OTel resource.
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Mode is attached to every span's resource and every log line.
	Mode AppMode

	// LogLevel is the minimum slog level emitted.
	LogLevel slog.Level
	// LogJSON selects slog.JSONHandler over slog.TextHandler.
	LogJSON bool

	// OTLPEndpoint is the OTLP/gRPC collector address. Empty disables
	// exporting entirely and falls back to no-op tracer/meter providers
	// (Init still returns a usable Logger either way).
	OTLPEndpoint string
	OTLPInsecure bool
	OTLPHeaders  map[string]string

	// DebugTrace forces the always-on sampler regardless of SampleRatio or
	// the standard OTEL_TRACES_SAMPLER environment variable, and routes the
	// attribute filter's blocked-attribute warnings to stderr.
	DebugTrace bool
	// TraceVerbose is reserved for a future bypass of the attribute-filter
	// span processor (SPEC_FULL's ambient-stack carryover); currently
	// unread — the filter always applies once OTLPEndpoint is set.
	TraceVerbose bool
	// SampleRatio is used by the TraceIDRatioBased sampler when no
	// OTEL_TRACES_SAMPLER override is present and DebugTrace is false. Zero
	// falls back to parent-based always-on.
	SampleRatio float64

	// ShutdownTimeoutSec bounds Providers.Shutdown.
	ShutdownTimeoutSec int

	// PrometheusEnabled selects the OTel-to-Prometheus bridge exporter for
	// metrics over the OTLP/gRPC pusher — for a deployment with a scrape-based
	// collector and no OTLP endpoint. When true, Providers.PrometheusHandler
	// is populated and OTLPEndpoint is ignored for metrics (traces still use
	// OTLPEndpoint if set).
	PrometheusEnabled bool
}

// DefaultConfig returns the server's baseline configuration: CLI mode,
// info-level text logging, and no OTLP export (no-op tracer/meter) until a
// collector endpoint is configured.
func DefaultConfig() Config {
	return Config{
		ServiceName:        "sqfvm-lsp",
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
