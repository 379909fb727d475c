package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqfvm/language-server/pkg/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ".vscode/sqfvm-lsp", cfg.Workspace.StoreDirName)
	assert.Equal(t, "ls-ignore.txt", cfg.Workspace.IgnoreFileName)
	assert.Equal(t, "$PBOPREFIX$", cfg.Workspace.PathPrefixMarker)
	assert.Equal(t, "use_scripted_analyzers", cfg.Workspace.ScriptedMarkerName)
	assert.Empty(t, cfg.Workspace.PathMappings)
	assert.False(t, cfg.Analysis.ScriptedAnalyzersEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sqfvm-lsp.yaml")

	content := `
workspace:
  path_mappings:
    - physical: "mission"
      virtual: "\\a3\\mission"
analysis:
  scripted_analyzers_enabled: true
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.Workspace.PathMappings, 1)
	assert.Equal(t, "mission", cfg.Workspace.PathMappings[0].Physical)
	assert.True(t, cfg.Analysis.ScriptedAnalyzersEnabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_InvalidMapping(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sqfvm-lsp.yaml")

	content := `
workspace:
  path_mappings:
    - physical: "mission"
      virtual: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := config.LoadConfig(path)
	require.Error(t, err)
}

func TestApplyWorkspacePathMappings(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	cfg.ApplyWorkspacePathMappings([]config.PathMapping{{Physical: "a", Virtual: "b"}})
	require.Len(t, cfg.Workspace.PathMappings, 1)
	assert.Equal(t, "a", cfg.Workspace.PathMappings[0].Physical)
}
