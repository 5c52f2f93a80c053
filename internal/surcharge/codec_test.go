package surcharge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-freight/internal/expr"
)

func TestDecodeKnownKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		rec    Record
		expect Params
	}{
		{
			name:   "fixed",
			rec:    Record{Kind: KindFixed, Params: json.RawMessage(`{"amount":3.5}`)},
			expect: Fixed{Amount: Float(3.5)},
		},
		{
			name:   "weight bracket without max",
			rec:    Record{Kind: KindWeightBracket, Params: json.RawMessage(`{"min":10,"price":5}`)},
			expect: WeightBracket{Bracket{Min: Float(10), Price: Float(5)}},
		},
		{
			name: "second longest side with fields",
			rec: Record{Kind: KindSecondLongestSideBracket, Params: json.RawMessage(
				`{"min":60,"max":80,"price":15,"fields":["length","width"]}`)},
			expect: SecondLongestSideBracket{
				Bracket: Bracket{Min: Float(60), Max: Float(80), Price: Float(15)},
				Fields:  []string{"length", "width"},
			},
		},
		{
			name: "custom",
			rec: Record{Kind: KindCustom, Params: json.RawMessage(
				`{"condition":[{"type":"field","value":"weight"},{"type":"value","value":30},{"type":"operator","value":">"}],` +
					`"formula":[{"type":"value","value":12}]}`)},
			expect: Custom{
				Condition: expr.Formula{expr.Field{Name: "weight"}, expr.Number{Value: 30}, expr.Operator{Op: expr.OpGT}},
				Formula:   expr.Formula{expr.Number{Value: 12}},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rule, err := Decode(tc.rec)
			require.NoError(t, err)
			require.Equal(t, tc.expect, rule.Params)
			require.Equal(t, tc.rec.Kind, rule.Kind())
		})
	}
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	t.Parallel()

	_, err := Decode(Record{ID: "x", Kind: "volumetric_magic", Params: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, ErrUnknownKind)

	for _, rec := range []Record{
		{Kind: KindFixed, Params: json.RawMessage(`{}`)},
		{Kind: KindFixed, Params: json.RawMessage(`{"amount":1,"currency":"EUR"}`)},
		{Kind: KindWeightBracket, Params: json.RawMessage(`{"min":1}`)},
		{Kind: KindCustom, Params: json.RawMessage(`{"formula":[]}`)},
		{Kind: KindCustom, Params: json.RawMessage(`{"formula":[{"type":"operator","value":"%"}]}`)},
		{Kind: KindPercentage, Scope: "shipment", Params: json.RawMessage(`{"rate":0.1}`)},
	} {
		_, err := Decode(rec)
		require.ErrorIs(t, err, ErrInvalidParams, "record %s %s", rec.Kind, rec.Params)
	}
}

func TestRuleJSONRoundTrip(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{ID: "r1", Name: "Heavy", Scope: ScopeBox, Params: WeightBracket{bracket(20, Float(40), 9)}},
		{ID: "r2", Name: "Remote", Params: Custom{Formula: expr.MustParse("(weight 2 *) 1 +")}},
	}
	data, err := json.Marshal(rules)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"weight_bracket"`)

	var decoded []Rule
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, rules, decoded)
}

func TestRecordRequiresParams(t *testing.T) {
	t.Parallel()

	_, err := Rule{ID: "empty"}.Record()
	require.ErrorIs(t, err, ErrInvalidParams)
}
