package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// didOpen implements spec.md §6's `textDocument/didOpen`: the editor's
// buffer becomes the file's current content (FileHistory.IsExternal=false),
// superseding whatever the initial scan or watcher last read from disk.
func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return srv.notify(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// didChange implements `textDocument/didChange` under full-document sync
// (spec.md §6's advertised text-sync capability): the single content-change
// event carries the new whole-document text.
func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}

	text, ok := wholeDocumentText(params.ContentChanges[0])
	if !ok {
		return nil
	}

	return srv.notify(ctx, params.TextDocument.URI, text)
}

// didSave implements `textDocument/didSave` with save-with-text (spec.md
// §6): when the client includes the saved text, treat it exactly like a
// didChange; a text-less save notification is a no-op (the editor's last
// didChange already recorded the current content).
func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == nil {
		return nil
	}

	return srv.notify(ctx, params.TextDocument.URI, *params.Text)
}

// didClose implements `textDocument/didClose`. The File row and its history
// are workspace state independent of any open editor buffer, so closing a
// document triggers no store mutation (spec.md §3's File lifecycle is keyed
// on disk/watch/edit events, not buffer lifetime).
func (srv *Server) didClose(_ *glsp.Context, _ *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (srv *Server) notify(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	rel := pathFromURI(srv.root, string(uri))

	if err := srv.ws.NotifyDocument(rel, text); err != nil {
		srv.logf(ctx, protocol.MessageTypeError, "analyze %s: %v", rel, err)
	}

	return nil
}

// wholeDocumentText extracts the Text field from one
// TextDocumentContentChangeEvent under full-document sync. glsp decodes a
// no-Range change event into protocol.TextDocumentContentChangeEventWhole;
// a plain map survives here too in case an older/looser client sends one,
// matching the teacher's own defensive map[string]any cast in
// pkg/uast/lsp.Server.didChange.
func wholeDocumentText(change any) (string, bool) {
	if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		return whole.Text, true
	}

	if wholePtr, ok := change.(*protocol.TextDocumentContentChangeEventWhole); ok {
		return wholePtr.Text, true
	}

	if m, ok := change.(map[string]any); ok {
		if text, ok := m["text"].(string); ok {
			return text, true
		}
	}

	return "", false
}
