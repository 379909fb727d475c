package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/workspace"
	"github.com/sqfvm/language-server/pkg/safeconv"
)

// references implements `textDocument/references` (spec.md §6, §4.8's
// editor-query surface): every Reference sharing the Variable found at the
// requested position, across every file it appears in.
func (srv *Server) references(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	rel := pathFromURI(srv.root, string(params.TextDocument.URI))
	line, col := fromLSPPosition(params.Position)

	refs, err := srv.ws.References(rel, line, col)
	if err != nil {
		srv.logf(ctx, protocol.MessageTypeError, "references %s: %v", rel, err)

		return nil, nil
	}

	locations := make([]protocol.Location, 0, len(refs))
	for _, r := range refs {
		locations = append(locations, protocol.Location{
			URI:   protocol.DocumentUri(uriFromPath(srv.root, r.File)),
			Range: pointRange(r.Line, r.Column, r.Length),
		})
	}

	return locations, nil
}

// hover implements `textDocument/hover`.
func (srv *Server) hover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	rel := pathFromURI(srv.root, string(params.TextDocument.URI))
	line, col := fromLSPPosition(params.Position)

	h, err := srv.ws.Hover(rel, line, col)
	if err != nil {
		srv.logf(ctx, protocol.MessageTypeError, "hover %s: %v", rel, err)

		return nil, nil
	}

	if h == nil {
		return nil, nil
	}

	hoverRange := protocol.Range{
		Start: toLSPPosition(h.StartLine, h.StartCol),
		End:   toLSPPosition(h.EndLine, h.EndCol),
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: h.Markup},
		Range:    &hoverRange,
	}, nil
}

// inlayHint implements `textDocument/inlayHint`: one "`: <types>`" label per
// typed Reference in range (spec.md §6, SPEC_FULL §4.9's rendering choice).
func (srv *Server) inlayHint(ctx *glsp.Context, params *protocol.InlayHintParams) ([]protocol.InlayHint, error) {
	rel := pathFromURI(srv.root, string(params.TextDocument.URI))
	startLine, _ := fromLSPPosition(params.Range.Start)
	endLine, _ := fromLSPPosition(params.Range.End)

	refs, err := srv.ws.InlayHint(rel, startLine, endLine)
	if err != nil {
		srv.logf(ctx, protocol.MessageTypeError, "inlayHint %s: %v", rel, err)

		return nil, nil
	}

	hints := make([]protocol.InlayHint, 0, len(refs))

	for _, r := range refs {
		kind := protocol.InlayHintKindType
		hints = append(hints, protocol.InlayHint{
			Position: toLSPPosition(r.Line, r.Column+r.Length),
			Label:    ": " + r.Types.String(),
			Kind:     &kind,
		})
	}

	return hints, nil
}

// codeAction implements `textDocument/codeAction`.
func (srv *Server) codeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	rel := pathFromURI(srv.root, string(params.TextDocument.URI))
	startLine, _ := fromLSPPosition(params.Range.Start)
	endLine, _ := fromLSPPosition(params.Range.End)

	results, err := srv.ws.CodeAction(rel, startLine, endLine)
	if err != nil {
		srv.logf(ctx, protocol.MessageTypeError, "codeAction %s: %v", rel, err)

		return nil, nil
	}

	actions := make([]protocol.CodeAction, 0, len(results))
	for _, res := range results {
		actions = append(actions, convertCodeAction(srv.root, res))
	}

	return actions, nil
}

func convertCodeAction(root string, res workspace.CodeActionResult) protocol.CodeAction {
	kind := toLSPCodeActionKind(res.Action.Kind)
	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)

	for _, c := range res.Changes {
		if c.Operation != store.ChangeFileChange || c.NewContent == nil {
			continue
		}

		uri := protocol.DocumentUri(uriFromPath(root, c.Path))

		var rng protocol.Range
		if c.StartLine != nil && c.EndLine != nil && c.StartColumn != nil && c.EndColumn != nil {
			rng = protocol.Range{
				Start: toLSPPosition(*c.StartLine, *c.StartColumn),
				End:   toLSPPosition(*c.EndLine, *c.EndColumn),
			}
		}

		changes[uri] = append(changes[uri], protocol.TextEdit{Range: rng, NewText: *c.NewContent})
	}

	return protocol.CodeAction{
		Title: res.Action.Title,
		Kind:  &kind,
		Edit:  &protocol.WorkspaceEdit{Changes: changes},
	}
}

func toLSPCodeActionKind(k store.CodeActionKind) protocol.CodeActionKind {
	switch k {
	case store.CodeActionQuickFix:
		return protocol.CodeActionKindQuickFix
	case store.CodeActionRefactor:
		return protocol.CodeActionKindRefactor
	case store.CodeActionExtract:
		return protocol.CodeActionKindRefactorExtract
	case store.CodeActionInline:
		return protocol.CodeActionKindRefactorInline
	case store.CodeActionWholeFile:
		return protocol.CodeActionKindSource
	case store.CodeActionRewrite:
		return protocol.CodeActionKindRefactorRewrite
	default:
		return protocol.CodeActionKind("")
	}
}

func fromLSPPosition(p protocol.Position) (line, col int) {
	return int(p.Line), int(p.Character)
}

// toLSPPosition converts a store-side line/column pair to the wire
// protocol's uint32 fields. Negative positions never come out of
// internal/store's queries, so a negative value here means an analyzer
// wrote a bad row; safeconv.MustIntToUint32 turns that into a panic
// instead of silently wrapping to a huge column number in the client.
func toLSPPosition(line, col int) protocol.Position {
	return protocol.Position{
		Line:      safeconv.MustIntToUint32(line),
		Character: safeconv.MustIntToUint32(col),
	}
}

func pointRange(line, col, length int) protocol.Range {
	return protocol.Range{
		Start: toLSPPosition(line, col),
		End:   toLSPPosition(line, col+length),
	}
}
