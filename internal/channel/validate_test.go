package channel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validChannel() Channel {
	return Channel{
		Code:           "EXP-DE",
		RoundingMethod: RoundCeil,
		Precision:      0.5,
		CompareMode:    CompareThenRound,
		Tiers: []RateTier{
			{MinWeight: 0, MaxWeight: 50, Priority: 1, BaseRate: 10},
			{MinWeight: 50, MaxWeight: 200, Priority: 2, BaseRate: 8},
		},
		VolRatio: 6000,
		Limits:   Limits{MinPieces: 1, MaxPieces: 20},
	}
}

func TestValidateAcceptsWellFormedChannel(t *testing.T) {
	t.Parallel()
	require.NoError(t, validChannel().Validate())
}

func TestValidateRejectsMalformedChannels(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Channel){
		"zero precision":     func(c *Channel) { c.Precision = 0 },
		"unknown rounding":   func(c *Channel) { c.RoundingMethod = "truncate" },
		"unknown compare":    func(c *Channel) { c.CompareMode = "max" },
		"inverted tier":      func(c *Channel) { c.Tiers[1].MaxWeight = 10 },
		"negative rate":      func(c *Channel) { c.Tiers[0].BaseRate = -1 },
		"missing code":       func(c *Channel) { c.Code = "" },
		"inverted box bound": func(c *Channel) { c.MinBoxChargeWeight, c.MaxBoxChargeWeight = 5, 2 },
		"inverted pieces":    func(c *Channel) { c.Limits.MinPieces = 30 },
	}
	for name, mutate := range cases {
		ch := validChannel()
		mutate(&ch)
		require.ErrorIs(t, ch.Validate(), ErrInvalidConfig, name)
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	var ch Channel
	require.Equal(t, RoundCeil, ch.Method())
	require.Equal(t, RoundThenCompare, ch.Mode())
}
