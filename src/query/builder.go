package query

import (
	"math"
	"strconv"

	"quake-observer/src/helpers"
	"quake-observer/src/models"
)

// Build encodes a filter snapshot into the canonical query descriptor shared by
// every backend endpoint. Parameters are always emitted in the same order and
// numbers use the shortest decimal form that round-trips, so equal snapshots
// yield byte-identical query strings.
func Build(s models.MFilterSnapshot) (models.MQueryDescriptor, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{models.ParamMinMagnitude, s.MinMagnitude},
		{models.ParamMaxDepth, s.MaxDepth},
		{models.ParamTimeRangeHours, s.TimeRangeHours},
	}

	params := make([]models.MQueryParam, 0, len(fields))
	for _, f := range fields {
		v, err := formatNumber(f.name, f.value)
		if err != nil {
			return models.MQueryDescriptor{}, err
		}
		params = append(params, models.MQueryParam{Name: f.name, Value: v})
	}
	return models.MQueryDescriptor{Params: params}, nil
}

// MustBuild is Build for snapshots already validated by filter.State.
func MustBuild(s models.MFilterSnapshot) models.MQueryDescriptor {
	d, err := Build(s)
	if err != nil {
		panic(err)
	}
	return d
}

func formatNumber(name string, v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", helpers.NewInvalidFilterValueError(name, v)
	}
	if v == 0 {
		v = 0 // drops the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}
