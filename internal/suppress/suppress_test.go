package suppress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContext_NoDirectives_AlwaysReports(t *testing.T) {
	t.Parallel()

	c := New()
	require.True(t, c.CanReport("VV-001", "init.sqf", 10))
}

func TestContext_DisableLine_OnlySuppressesFollowingLine(t *testing.T) {
	t.Parallel()

	c := New()
	c.PushDisableLine("init.sqf", 5, "VV-001")

	require.False(t, c.CanReport("VV-001", "init.sqf", 6))
	require.True(t, c.CanReport("VV-001", "init.sqf", 5))
	require.True(t, c.CanReport("VV-001", "init.sqf", 7))
	require.True(t, c.CanReport("VV-002", "init.sqf", 6))
}

func TestContext_Disable_SuppressesUntilEnable(t *testing.T) {
	t.Parallel()

	c := New()
	c.PushDisable("init.sqf", 10, "VV-001")

	require.True(t, c.CanReport("VV-001", "init.sqf", 10))
	require.False(t, c.CanReport("VV-001", "init.sqf", 11))
	require.False(t, c.CanReport("VV-001", "init.sqf", 100))

	c.PushEnable("init.sqf", 20, "VV-001")

	require.False(t, c.CanReport("VV-001", "init.sqf", 15))
	require.True(t, c.CanReport("VV-001", "init.sqf", 20))
	require.True(t, c.CanReport("VV-001", "init.sqf", 21))
}

func TestContext_Disable_ReenabledThenDisabledAgain(t *testing.T) {
	t.Parallel()

	c := New()
	c.PushDisable("init.sqf", 1, "VV-001")
	c.PushEnable("init.sqf", 5, "VV-001")
	c.PushDisable("init.sqf", 10, "VV-001")

	require.True(t, c.CanReport("VV-001", "init.sqf", 5))
	require.True(t, c.CanReport("VV-001", "init.sqf", 9))
	require.False(t, c.CanReport("VV-001", "init.sqf", 11))
}

func TestContext_DisableFile_SuppressesEverywhere(t *testing.T) {
	t.Parallel()

	c := New()
	c.PushDisableFile("VV-003")

	require.False(t, c.CanReport("VV-003", "init.sqf", 1))
	require.False(t, c.CanReport("VV-003", "other.sqf", 999))
	require.True(t, c.CanReport("VV-004", "init.sqf", 1))
}

func TestContext_DisableFile_OutranksLaterEnable(t *testing.T) {
	t.Parallel()

	c := New()
	c.PushDisableFile("VV-001")
	c.PushEnable("init.sqf", 1, "VV-001")

	require.False(t, c.CanReport("VV-001", "init.sqf", 50))
}

func TestContext_DirectivesScopedPerFile(t *testing.T) {
	t.Parallel()

	c := New()
	c.PushDisable("a.sqf", 1, "VV-001")

	require.False(t, c.CanReport("VV-001", "a.sqf", 2))
	require.True(t, c.CanReport("VV-001", "b.sqf", 2))
}
