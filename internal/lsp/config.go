package lsp

import (
	"encoding/json"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/sqfvm/language-server/pkg/config"
)

// settingsShape mirrors spec.md §6's `Executable.PathMappings` configuration
// key; mapstructure tags are irrelevant here (this is decoded from JSON sent
// over the wire, not from pkg/config's viper loader), hence the plain `json`
// tags instead.
type settingsShape struct {
	Executable struct {
		PathMappings []config.PathMapping `json:"PathMappings"`
	} `json:"Executable"`
}

// didChangeConfiguration implements `workspace/didChangeConfiguration`
// (spec.md §6): replaces the workspace-scoped path mappings wholesale and
// marks the whole workspace outdated.
func (srv *Server) didChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	raw, err := json.Marshal(params.Settings)
	if err != nil {
		srv.logf(ctx, protocol.MessageTypeWarning, "didChangeConfiguration: marshal settings: %v", err)

		return nil
	}

	var settings settingsShape
	if err := json.Unmarshal(raw, &settings); err != nil {
		srv.logf(ctx, protocol.MessageTypeWarning, "didChangeConfiguration: decode settings: %v", err)

		return nil
	}

	if applyErr := srv.ws.ApplyWorkspaceConfiguration(settings.Executable.PathMappings); applyErr != nil {
		srv.logf(ctx, protocol.MessageTypeError, "apply path mappings: %v", applyErr)
	}

	return nil
}
