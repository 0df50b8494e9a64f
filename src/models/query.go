package models

import (
	"net/url"
	"strings"
)

// Query parameter names shared by every backend endpoint.
const (
	ParamMinMagnitude   = "min_magnitude"
	ParamMaxDepth       = "max_depth"
	ParamTimeRangeHours = "time_range_hours"
)

type MQueryParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MQueryDescriptor is the canonical, ordered parameter encoding of a filter snapshot.
type MQueryDescriptor struct {
	Params []MQueryParam `json:"params"`
}

// Encode renders the descriptor as a query string, preserving parameter order.
func (d MQueryDescriptor) Encode() string {
	var sb strings.Builder
	for i, p := range d.Params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

// Get returns the value of the named parameter.
func (d MQueryDescriptor) Get(name string) (string, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (d MQueryDescriptor) String() string {
	return d.Encode()
}
