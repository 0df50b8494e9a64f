package query

import (
	"errors"
	"math"
	"testing"

	"quake-observer/src/helpers"
	"quake-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_CanonicalOrderAndFormat(t *testing.T) {
	d, err := Build(models.MFilterSnapshot{MinMagnitude: 4, MaxDepth: 50, TimeRangeHours: 24})
	require.NoError(t, err)
	assert.Equal(t, "min_magnitude=4&max_depth=50&time_range_hours=24", d.Encode())

	v, ok := d.Get(models.ParamMaxDepth)
	assert.True(t, ok)
	assert.Equal(t, "50", v)
}

func TestBuild_Fractions(t *testing.T) {
	cases := []struct {
		in   models.MFilterSnapshot
		want string
	}{
		{models.MFilterSnapshot{MinMagnitude: 2.5, MaxDepth: 40, TimeRangeHours: 1}, "min_magnitude=2.5&max_depth=40&time_range_hours=1"},
		{models.MFilterSnapshot{MinMagnitude: 0.1, MaxDepth: 0, TimeRangeHours: 168}, "min_magnitude=0.1&max_depth=0&time_range_hours=168"},
		{models.MFilterSnapshot{MinMagnitude: math.Copysign(0, -1), MaxDepth: 12.75, TimeRangeHours: 6}, "min_magnitude=0&max_depth=12.75&time_range_hours=6"},
		{models.MFilterSnapshot{MinMagnitude: 1e21, MaxDepth: 1, TimeRangeHours: 1}, "min_magnitude=1000000000000000000000&max_depth=1&time_range_hours=1"},
	}
	for _, c := range cases {
		d, err := Build(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, d.Encode())
	}
}

func TestBuild_Deterministic(t *testing.T) {
	snaps := []models.MFilterSnapshot{
		{MinMagnitude: 1, MaxDepth: 40, TimeRangeHours: 24},
		{MinMagnitude: 3.3, MaxDepth: 99.9, TimeRangeHours: 72},
		{MinMagnitude: 0.30000000000000004, MaxDepth: 7, TimeRangeHours: 2},
	}
	for _, s := range snaps {
		first := MustBuild(s).Encode()
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, MustBuild(s).Encode())
		}
	}
	assert.NotEqual(t, MustBuild(snaps[0]).Encode(), MustBuild(snaps[1]).Encode())
}

func TestBuild_RejectsNonFinite(t *testing.T) {
	_, err := Build(models.MFilterSnapshot{MinMagnitude: 1, MaxDepth: 40, TimeRangeHours: math.Inf(1)})
	require.Error(t, err)

	var invErr *helpers.InvalidFilterValueError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, models.ParamTimeRangeHours, invErr.Field)

	assert.Panics(t, func() { MustBuild(models.MFilterSnapshot{MaxDepth: math.NaN()}) })
}
