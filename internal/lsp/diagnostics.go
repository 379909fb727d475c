package lsp

import (
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/sqfvm/language-server/internal/store"
)

// diagnosticsBridge holds the most recent live connection context so
// Orchestrator.Publish (invoked from the watch loop or from a didChange
// handler, neither of which carries a request-scoped *glsp.Context) can
// still push `textDocument/publishDiagnostics` notifications. Captured once
// `initialized` fires; nil before that point, in which case Publish is a
// documented no-op (nothing is connected yet to receive the notification,
// matching the teacher's own start-up ordering in pkg/uast/lsp).
type diagnosticsBridge struct {
	mu  sync.RWMutex
	ctx *glsp.Context
}

func (b *diagnosticsBridge) set(ctx *glsp.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ctx = ctx
}

func (b *diagnosticsBridge) get() *glsp.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.ctx
}

// wirePublish installs srv.publish as the Orchestrator's diagnostics sink
// and srv.logMessage as its window/logMessage sink (spec.md §6).
func (srv *Server) wirePublish() {
	srv.ws.Publish = srv.publish
	srv.ws.Log = srv.logMessage
}

func (srv *Server) publish(file string, diagnostics []*store.Diagnostic) {
	ctx := srv.bridge.get()
	if ctx == nil {
		return
	}

	out := make([]protocol.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		out = append(out, convertDiagnostic(d))
	}

	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uriFromPath(srv.root, file)),
		Diagnostics: out,
	})
}

func (srv *Server) logMessage(sev store.Severity, message string) {
	ctx := srv.bridge.get()
	if ctx == nil {
		return
	}

	ctx.Notify("window/logMessage", &protocol.LogMessageParams{
		Type:    toLSPMessageType(sev),
		Message: message,
	})
}

func convertDiagnostic(d *store.Diagnostic) protocol.Diagnostic {
	severity := toLSPDiagnosticSeverity(d.Severity)
	code := any(d.Code)
	source := serverName

	return protocol.Diagnostic{
		Range:    pointRange(d.Line, d.Column, d.Length),
		Severity: &severity,
		Code:     &code,
		Source:   &source,
		Message:  d.Message,
	}
}

func toLSPDiagnosticSeverity(sev store.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case store.SeverityFatal, store.SeverityError:
		return protocol.DiagnosticSeverityError
	case store.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case store.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func toLSPMessageType(sev store.Severity) protocol.MessageType {
	switch sev {
	case store.SeverityFatal, store.SeverityError:
		return protocol.MessageTypeError
	case store.SeverityWarning:
		return protocol.MessageTypeWarning
	default:
		return protocol.MessageTypeInfo
	}
}
