package models

// MFilterSnapshot is the immutable value of the three dashboard filters at one instant.
type MFilterSnapshot struct {
	MinMagnitude   float64 `yaml:"min_magnitude" json:"min_magnitude"`
	MaxDepth       float64 `yaml:"max_depth" json:"max_depth"`
	TimeRangeHours float64 `yaml:"time_range_hours" json:"time_range_hours"`
}

// MFilterPatch is a partial filter change. Nil fields are left untouched.
type MFilterPatch struct {
	MinMagnitude   *float64 `json:"min_magnitude,omitempty"`
	MaxDepth       *float64 `json:"max_depth,omitempty"`
	TimeRangeHours *float64 `json:"time_range_hours,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p MFilterPatch) IsEmpty() bool {
	return p.MinMagnitude == nil && p.MaxDepth == nil && p.TimeRangeHours == nil
}

// Apply returns s with the non-nil fields of p merged in.
func (s MFilterSnapshot) Apply(p MFilterPatch) MFilterSnapshot {
	if p.MinMagnitude != nil {
		s.MinMagnitude = *p.MinMagnitude
	}
	if p.MaxDepth != nil {
		s.MaxDepth = *p.MaxDepth
	}
	if p.TimeRangeHours != nil {
		s.TimeRangeHours = *p.TimeRangeHours
	}
	return s
}
