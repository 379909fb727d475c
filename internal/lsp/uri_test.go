package lsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathFromURI_AbsoluteUnderRoot(t *testing.T) {
	t.Parallel()

	rel := pathFromURI("/ws", "file:///ws/mission/init.sqf")
	require.Equal(t, "mission/init.sqf", rel)
}

func TestPathFromURI_URLEscaped(t *testing.T) {
	t.Parallel()

	rel := pathFromURI("/ws", "file:///ws/my%20mission/init.sqf")
	require.Equal(t, "my mission/init.sqf", rel)
}

func TestUriFromPath_RoundTrips(t *testing.T) {
	t.Parallel()

	uri := uriFromPath("/ws", "mission/init.sqf")
	require.Equal(t, "file:///ws/mission/init.sqf", uri)
	require.Equal(t, "mission/init.sqf", pathFromURI("/ws", uri))
}
