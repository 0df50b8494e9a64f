package views

import (
	"fmt"
	"html"

	"quake-observer/src/interfaces"
	"quake-observer/src/models"
)

// Depth colour scale, deepest first
const (
	ColorDeep         = "#d73027" // > 70 km
	ColorIntermediate = "#fc8d59" // > 40 km
	ColorShallow      = "#fee08b" // > 20 km
	ColorSurface      = "#91cf60"
)

// Fixed marker styling
const (
	MarkerStroke      = "#000"
	MarkerWeight      = 1
	MarkerOpacity     = 1.0
	MarkerFillOpacity = 0.7
)

// -----------------------------------------------------------------------------

// DepthColor maps a depth in km to its marker fill colour.
func DepthColor(depth float64) string {
	switch {
	case depth > 70:
		return ColorDeep
	case depth > 40:
		return ColorIntermediate
	case depth > 20:
		return ColorShallow
	default:
		return ColorSurface
	}
}

// MarkerRadius maps a magnitude to a marker radius in pixels.
func MarkerRadius(magnitude float64) float64 {
	return magnitude * 2
}

// MarkerPopup is the HTML shown when a marker is clicked.
func MarkerPopup(r models.MEarthquakeRecord) string {
	return fmt.Sprintf("<b>%s</b><br>Mag: %.2f<br>Depth: %.1f km<br>Time: %s",
		html.EscapeString(r.Locality), r.Magnitude, r.Depth, html.EscapeString(r.Time))
}

// -----------------------------------------------------------------------------
// MapView
// -----------------------------------------------------------------------------

type MapView struct {
	base
}

func NewMapView(sink interfaces.IViewSink) *MapView {
	return &MapView{base: newBase(models.ViewMap, sink)}
}

// -----------------------------------------------------------------------------

// Render replaces every marker with one per record.
func (v *MapView) Render(records []models.MEarthquakeRecord) {
	markers := make([]models.MMarker, 0, len(records))
	for _, r := range records {
		markers = append(markers, models.MMarker{
			Lat:         r.Lat,
			Lon:         r.Lon,
			Radius:      MarkerRadius(r.Magnitude),
			FillColor:   DepthColor(r.Depth),
			Color:       MarkerStroke,
			Weight:      MarkerWeight,
			Opacity:     MarkerOpacity,
			FillOpacity: MarkerFillOpacity,
			Popup:       MarkerPopup(r),
		})
	}
	v.publish(models.MMapViewState{Markers: markers})
}

func (v *MapView) RenderPayload(payload interface{}) error {
	records, ok := payload.([]models.MEarthquakeRecord)
	if !ok {
		return payloadError(v.name, "[]MEarthquakeRecord", payload)
	}
	v.Render(records)
	return nil
}

func (v *MapView) RenderEmpty() {
	v.Render(nil)
}

// State returns the markers currently shown.
func (v *MapView) State() (models.MMapViewState, bool) {
	s, ok := v.current().(models.MMapViewState)
	return s, ok
}
