package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-freight/internal/channel"
)

func tieredChannel() channel.Channel {
	return channel.Channel{
		Code:           "EXP",
		RoundingMethod: channel.RoundCeil,
		Precision:      1,
		Tiers: []channel.RateTier{
			{MinWeight: 0, MaxWeight: 50, Priority: 1, BaseRate: 10},
			{MinWeight: 50, MaxWeight: 200, Priority: 1, BaseRate: 8},
		},
	}
}

func TestComputeWithVolumetricTierMatch(t *testing.T) {
	t.Parallel()

	res := ComputeWithVolumetric(49.2, 40, tieredChannel())

	require.Equal(t, 50.0, res.ChargeWeight)
	require.Equal(t, 40.0, res.VolumetricWeight)
	require.NotNil(t, res.FreightCost)
	require.Equal(t, 500.0, *res.FreightCost)
	require.Equal(t, 0, res.TierIndex)
	require.Equal(t, 10.0, res.Tier.BaseRate)
}

func TestTierClampsChargeWeight(t *testing.T) {
	t.Parallel()

	// volumetric uplift beyond the tier maximum is clamped back into the tier
	res := ComputeWithVolumetric(30, 75, tieredChannel())
	require.Equal(t, 50.0, res.ChargeWeight)
	require.Equal(t, 500.0, *res.FreightCost)

	ch := tieredChannel()
	ch.Tiers = []channel.RateTier{{MinWeight: 5, MaxWeight: 10, Priority: 1, BaseRate: 3.333}}
	res = ComputeWithVolumetric(5, 0, ch)
	require.Equal(t, 5.0, res.ChargeWeight)
	require.Equal(t, 16.67, *res.FreightCost)
}

func TestSelectTierPriorityAndTies(t *testing.T) {
	t.Parallel()

	tiers := []channel.RateTier{
		{MinWeight: 0, MaxWeight: 100, Priority: 5, BaseRate: 1},
		{MinWeight: 10, MaxWeight: 30, Priority: 2, BaseRate: 2},
		{MinWeight: 0, MaxWeight: 40, Priority: 2, BaseRate: 3},
	}
	require.Equal(t, 1, SelectTier(tiers, 20))
	require.Equal(t, 2, SelectTier(tiers, 35))
	require.Equal(t, 2, SelectTier(tiers, 5))
	require.Equal(t, 0, SelectTier(tiers, 80))
	require.Equal(t, -1, SelectTier(tiers, 120))
	require.Equal(t, -1, SelectTier(nil, 1))
}

func TestCompareModes(t *testing.T) {
	t.Parallel()

	ch := channel.Channel{Code: "X", Precision: 1, RoundingMethod: channel.RoundNearest}

	// round(10.4)=10 vs round(10.45)=10
	ch.CompareMode = channel.RoundThenCompare
	require.Equal(t, 10.0, ComputeWithVolumetric(10.4, 10.45, ch).ChargeWeight)

	ch.CompareMode = channel.CompareThenRound
	require.Equal(t, 10.0, ComputeWithVolumetric(10.4, 10.45, ch).ChargeWeight)

	// round(10.4)=10 vs round(10.6)=11; max first gives round(10.6)=11 as well
	require.Equal(t, 11.0, ComputeWithVolumetric(10.4, 10.6, ch).ChargeWeight)

	ch.RoundingMethod = channel.RoundFloor
	ch.Precision = 5
	ch.CompareMode = channel.RoundThenCompare
	require.Equal(t, 10.0, ComputeWithVolumetric(12, 14.9, ch).ChargeWeight)
	ch.CompareMode = channel.CompareThenRound
	require.Equal(t, 10.0, ComputeWithVolumetric(12, 14.9, ch).ChargeWeight)
	require.Equal(t, 15.0, ComputeWithVolumetric(12, 15.1, ch).ChargeWeight)
}

func TestFallbackWithoutTier(t *testing.T) {
	t.Parallel()

	ch := channel.Channel{
		Code:               "FLAT",
		Precision:          0.5,
		MinCharge:          2,
		MinBoxChargeWeight: 1,
		MaxBoxChargeWeight: 30,
	}

	res := ComputeWithVolumetric(0.2, 0, ch)
	require.Equal(t, 2.0, res.ChargeWeight)
	require.Nil(t, res.FreightCost)
	require.Nil(t, res.Tier)
	require.Equal(t, -1, res.TierIndex)

	require.Equal(t, 30.0, ComputeWithVolumetric(12, 44.2, ch).ChargeWeight)
	require.Equal(t, 12.5, ComputeWithVolumetric(12.1, 3, ch).ChargeWeight)
}

func TestFallbackNeverBelowMinCharge(t *testing.T) {
	t.Parallel()

	ch := channel.Channel{Code: "FLAT", Precision: 0.1, MinCharge: 7.5, MaxBoxChargeWeight: 5}
	for _, w := range []float64{0, 0.01, 1, 4.99, 6, 100} {
		require.GreaterOrEqual(t, ComputeWithVolumetric(w, w/2, ch).ChargeWeight, ch.MinCharge)
	}
}

func TestVolumetricWeight(t *testing.T) {
	t.Parallel()

	require.Equal(t, 40.0, VolumetricWeight(10, 100, 60, 40, 6000))
	require.Equal(t, 10.0, VolumetricWeight(10, 100, 0, 40, 6000))
	require.Equal(t, 10.0, VolumetricWeight(10, 100, 60, 40, 0))

	ch := tieredChannel()
	ch.VolRatio = 5000
	res := ComputeChargeWeight(20, 100, 50, 50, ch)
	require.Equal(t, 50.0, res.VolumetricWeight)
	require.Equal(t, 50.0, res.ChargeWeight)
	require.Equal(t, 500.0, *res.FreightCost)

	// without dimensions there is no uplift
	res = ComputeChargeWeight(20, 0, 0, 0, ch)
	require.Equal(t, 20.0, res.VolumetricWeight)
	require.Equal(t, 20.0, res.ChargeWeight)
}
