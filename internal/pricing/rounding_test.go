package pricing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-freight/internal/channel"
)

func TestApplyRounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		weight    float64
		precision float64
		method    channel.RoundingMethod
		want      float64
	}{
		{49.2, 1, channel.RoundCeil, 50},
		{49.2, 1, channel.RoundFloor, 49},
		{49.5, 1, channel.RoundNearest, 50},
		{49.49, 1, channel.RoundNearest, 49},
		{1.3, 0.5, channel.RoundCeil, 1.5},
		{1.3, 0.5, channel.RoundFloor, 1},
		{0.9, 0.3, channel.RoundCeil, 0.9},
		{1, 0.3, channel.RoundCeil, 1.2},
		{12.01, 0.1, "", 12.1},
		{20, 5, channel.RoundCeil, 20},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ApplyRounding(tc.weight, tc.precision, tc.method), "%v @ %v %s", tc.weight, tc.precision, tc.method)
	}
}

func TestApplyRoundingNoOps(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3.7, ApplyRounding(3.7, 0, channel.RoundCeil))
	require.Equal(t, 3.7, ApplyRounding(3.7, -1, channel.RoundCeil))
	require.Equal(t, 3.7, ApplyRounding(3.7, 1, "truncate"))
	require.True(t, math.IsNaN(ApplyRounding(math.NaN(), 1, channel.RoundCeil)))
	require.True(t, math.IsInf(ApplyRounding(math.Inf(1), 1, channel.RoundCeil), 1))
}

func TestApplyRoundingBoundsAndMultiples(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	precisions := []float64{0.1, 0.25, 0.3, 0.5, 1, 2.5, 10}
	for i := 0; i < 500; i++ {
		w := math.Round(rng.Float64()*100000) / 1000
		for _, p := range precisions {
			up := ApplyRounding(w, p, channel.RoundCeil)
			down := ApplyRounding(w, p, channel.RoundFloor)
			require.GreaterOrEqual(t, up, w)
			require.LessOrEqual(t, down, w)

			step := decimal.NewFromFloat(p)
			require.True(t, decimal.NewFromFloat(up).Mod(step).IsZero(), "ceil %v @ %v = %v", w, p, up)
			require.True(t, decimal.NewFromFloat(down).Mod(step).IsZero(), "floor %v @ %v = %v", w, p, down)
		}
	}
}

func TestRoundMoney(t *testing.T) {
	t.Parallel()

	require.Equal(t, 500.0, RoundMoney(500))
	require.Equal(t, 1.01, RoundMoney(1.005))
	require.Equal(t, 2.68, RoundMoney(2.675))
	require.Equal(t, -1.01, RoundMoney(-1.005))
	require.Zero(t, RoundMoney(math.NaN()))
}
