package debugcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/overlay/pkg/overrides"
)

func TestParse(t *testing.T) {
	t.Run("Should ignore lines that are not debug commands", func(t *testing.T) {
		for _, line := range []string{"", "   ", "hello", "/help", "/debu", "debug show"} {
			_, ok := Parse(line)
			assert.False(t, ok, "line %q", line)
		}
	})

	t.Run("Should default to show", func(t *testing.T) {
		for _, line := range []string{"/debug", "  /debug  ", "/DEBUG", "/Debug\t"} {
			cmd, ok := Parse(line)
			require.True(t, ok, "line %q", line)
			assert.Equal(t, ActionShow, cmd.Action)
		}
	})

	t.Run("Should parse show and reset case-insensitively", func(t *testing.T) {
		cmd, ok := Parse("/debug SHOW")
		require.True(t, ok)
		assert.Equal(t, ActionShow, cmd.Action)

		cmd, ok = Parse("/debug Reset extra args")
		require.True(t, ok)
		assert.Equal(t, ActionReset, cmd.Action)
	})

	t.Run("Should parse set with a typed value", func(t *testing.T) {
		cmd, ok := Parse("/debug set server.port=9090")
		require.True(t, ok)
		assert.Equal(t, ActionSet, cmd.Action)
		assert.Equal(t, "server.port", cmd.Path)
		assert.True(t, overrides.Number(9090).Equal(cmd.Value))
	})

	t.Run("Should trim the path and keep everything after the first equals sign", func(t *testing.T) {
		cmd, ok := Parse(`/debug set  agent.model = "a=b"`)
		require.True(t, ok)
		assert.Equal(t, ActionSet, cmd.Action)
		assert.Equal(t, "agent.model", cmd.Path)
		assert.True(t, overrides.String("a=b").Equal(cmd.Value), "got %s", cmd.Value)
	})

	t.Run("Should parse JSON object values", func(t *testing.T) {
		cmd, ok := Parse(`/debug set agent={"tools": ["search"], "max_tokens": 10}`)
		require.True(t, ok)
		require.Equal(t, ActionSet, cmd.Action)
		expected := overrides.Object(map[string]overrides.Value{
			"tools":      overrides.Array(overrides.String("search")),
			"max_tokens": overrides.Number(10),
		})
		assert.True(t, expected.Equal(cmd.Value), "got %s", cmd.Value)
	})

	t.Run("Should report set usage errors", func(t *testing.T) {
		for _, line := range []string{"/debug set", "/debug set foo", "/debug set =1", "/debug set  =1", "/debug set   \t =x"} {
			cmd, ok := Parse(line)
			require.True(t, ok, "line %q", line)
			assert.Equal(t, ActionError, cmd.Action, "line %q", line)
			assert.Equal(t, "Usage: /debug set path=value", cmd.Message, "line %q", line)
		}
	})

	t.Run("Should surface literal errors verbatim", func(t *testing.T) {
		cmd, ok := Parse("/debug set a=")
		require.True(t, ok)
		assert.Equal(t, ActionError, cmd.Action)
		assert.Equal(t, "Missing value.", cmd.Message)

		cmd, ok = Parse("/debug set a={broken")
		require.True(t, ok)
		assert.Equal(t, ActionError, cmd.Action)
		assert.Contains(t, cmd.Message, "Invalid JSON: ")
	})

	t.Run("Should parse unset", func(t *testing.T) {
		cmd, ok := Parse("/debug unset  agent.model ")
		require.True(t, ok)
		assert.Equal(t, ActionUnset, cmd.Action)
		assert.Equal(t, "agent.model", cmd.Path)

		cmd, ok = Parse("/debug unset")
		require.True(t, ok)
		assert.Equal(t, ActionError, cmd.Action)
		assert.Equal(t, "Usage: /debug unset path", cmd.Message)
	})

	t.Run("Should pass unset paths through unvalidated", func(t *testing.T) {
		cmd, ok := Parse("/debug unset a..b")
		require.True(t, ok)
		assert.Equal(t, ActionUnset, cmd.Action)
		assert.Equal(t, "a..b", cmd.Path)
	})

	t.Run("Should reject unknown verbs", func(t *testing.T) {
		for _, line := range []string{"/debug clear", "/debugger", "/debug sett a=1"} {
			cmd, ok := Parse(line)
			require.True(t, ok, "line %q", line)
			assert.Equal(t, ActionError, cmd.Action)
			assert.Equal(t, "Usage: /debug show|set|unset|reset", cmd.Message)
		}
	})
}

func TestCommand_String(t *testing.T) {
	t.Run("Should render commands back to text", func(t *testing.T) {
		assert.Equal(t, "/debug show", Command{Action: ActionShow}.String())
		assert.Equal(t, "/debug reset", Command{Action: ActionReset}.String())
		assert.Equal(t, "/debug unset a.b", Command{Action: ActionUnset, Path: "a.b"}.String())
		assert.Equal(t, `/debug set a.b="x"`, Command{Action: ActionSet, Path: "a.b", Value: overrides.String("x")}.String())
		assert.Equal(t, "error: Missing value.", Command{Action: ActionError, Message: "Missing value."}.String())
	})
}
