// Package lsp implements the editor-facing external interface (spec.md §6):
// a github.com/tliron/glsp `protocol.Handler` whose methods are thin
// wrappers delegating to internal/workspace.Orchestrator, matching the
// teacher's own pkg/uast/lsp shape of "handler methods that are thin
// wrappers over a DocumentStore" — renamed and rewired here from a
// mapping-DSL completion/hover server onto the workspace analysis engine's
// references/hover/codeAction/inlayHint/diagnostics surface.
package lsp

import (
	"fmt"
	"log/slog"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/sqfvm/language-server/internal/workspace"
)

const serverName = "sqfvm-lsp"

// Server is the glsp protocol adapter in front of one workspace's
// Orchestrator (spec.md §6). It never touches internal/store directly.
type Server struct {
	root string
	ws   *workspace.Orchestrator
	log  *slog.Logger

	bridge *diagnosticsBridge

	handler protocol.Handler
}

// NewServer builds a Server over an already-Start'd Orchestrator rooted at
// root. It wires Orchestrator.Publish so every post-commit diagnostic batch
// is pushed to the editor as `textDocument/publishDiagnostics`.
func NewServer(root string, ws *workspace.Orchestrator, log *slog.Logger) *Server {
	srv := &Server{root: root, ws: ws, log: log, bridge: &diagnosticsBridge{}}
	srv.wirePublish()

	srv.handler = protocol.Handler{
		Initialize:                      srv.initialize,
		Initialized:                     srv.initialized,
		Shutdown:                        srv.shutdown,
		SetTrace:                        srv.setTrace,
		TextDocumentDidOpen:             srv.didOpen,
		TextDocumentDidChange:           srv.didChange,
		TextDocumentDidSave:             srv.didSave,
		TextDocumentDidClose:            srv.didClose,
		TextDocumentReferences:          srv.references,
		TextDocumentHover:               srv.hover,
		TextDocumentCodeAction:          srv.codeAction,
		TextDocumentInlayHint:           srv.inlayHint,
		WorkspaceDidChangeConfiguration: srv.didChangeConfiguration,
	}

	return srv
}

// Run starts the LSP server on stdio, blocking until the client
// disconnects or the process is shut down.
func (srv *Server) Run() error {
	lspServer := glspserver.NewServer(&srv.handler, serverName, false)

	return lspServer.RunStdio()
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	version := versionString

	return protocol.InitializeResult{
		Capabilities: srv.capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

const versionString = "0.1.0"

func (srv *Server) capabilities() protocol.ServerCapabilities {
	trueVal := true

	return protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
			Save:      &protocol.SaveOptions{IncludeText: &trueVal},
		},
		CompletionProvider: &protocol.CompletionOptions{ResolveProvider: &trueVal},
		ReferencesProvider: true,
		HoverProvider:      true,
		CodeActionProvider: &protocol.CodeActionOptions{
			CodeActionKinds: []protocol.CodeActionKind{
				protocol.CodeActionKindQuickFix,
				protocol.CodeActionKindRefactor,
				protocol.CodeActionKindRefactorExtract,
				protocol.CodeActionKindRefactorInline,
				protocol.CodeActionKindSource,
				protocol.CodeActionKindRefactorRewrite,
			},
		},
		InlayHintProvider: &protocol.InlayHintOptions{ResolveProvider: &trueVal},
	}
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

func (srv *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	srv.bridge.set(ctx)

	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) logf(ctx *glsp.Context, sev protocol.MessageType, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	srv.log.Warn(msg)

	if ctx != nil {
		ctx.Notify("window/logMessage", &protocol.LogMessageParams{
			Type:    sev,
			Message: msg,
		})
	}
}
