package expr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBuildsGroups(t *testing.T) {
	t.Parallel()

	nodes, err := Parse("(2 3 +) 5 *")
	require.NoError(t, err)
	require.Equal(t, []Node{
		Group{Nodes: []Node{Number{Value: 2}, Number{Value: 3}, Operator{Op: OpAdd}}},
		Number{Value: 5},
		Operator{Op: OpMul},
	}, nodes)
}

func TestParseRejectsUnbalancedGroups(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"(2 3 +", "2 3 +)", "((1)", "1 1e+x +"} {
		_, err := Parse(text)
		require.ErrorIs(t, err, ErrMalformed, text)
	}
}

func TestFormulaJSON(t *testing.T) {
	t.Parallel()

	raw := `[
		{"type":"group","value":[{"type":"field","value":"length"},{"type":"field","value":"width"},{"type":"operator","value":"+"}]},
		{"type":"value","value":150},
		{"type":"operator","value":">"}
	]`
	var f Formula
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	require.Len(t, f, 3)

	res := Evaluate(f, Context{"length": 100, "width": 60})
	ok, isBool := res.Truth()
	require.True(t, isBool)
	require.True(t, ok)

	encoded, err := json.Marshal(f)
	require.NoError(t, err)
	var again Formula
	require.NoError(t, json.Unmarshal(encoded, &again))
	require.Equal(t, f, again)
}

func TestFormulaJSONRejectsUnknownTokens(t *testing.T) {
	t.Parallel()

	var f Formula
	require.Error(t, json.Unmarshal([]byte(`[{"type":"call","value":"max"}]`), &f))
	require.Error(t, json.Unmarshal([]byte(`[{"type":"operator","value":"%"}]`), &f))
}
