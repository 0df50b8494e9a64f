package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	datasource "quake-observer/src/data_source"
	"quake-observer/src/helpers"
	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/models"
)

// Source fetches dashboard payloads from the earthquake backend API.
// One Source (and its Sequencer) belongs to one dashboard session.
type Source struct {
	BaseURL   string
	Network   interfaces.INetworkManager
	Sequencer *datasource.Sequencer
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSource(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *Source {
	if log == nil {
		log = logger.NewLogger(cfg, "BackendSource")
	}
	return &Source{
		BaseURL:   strings.TrimRight(cfg.Backend.BaseURL, "/"),
		Network:   netMgr,
		Sequencer: datasource.NewSequencer(),
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// Issue allocates the ticket before any network call so that issue order is
// sequence order.
func (s *Source) Issue(endpoint models.Endpoint, descriptor models.MQueryDescriptor) models.MRequestTicket {
	return models.MRequestTicket{
		Endpoint:   endpoint,
		Sequence:   s.Sequencer.Next(endpoint),
		Descriptor: descriptor,
		IssuedAt:   time.Now(),
	}
}

// -----------------------------------------------------------------------------

func (s *Source) IsLatest(ticket models.MRequestTicket) bool {
	return s.Sequencer.Latest(ticket.Endpoint) == ticket.Sequence
}

// -----------------------------------------------------------------------------

// Fetch requests the ticket's endpoint and decodes its payload.
func (s *Source) Fetch(ctx context.Context, ticket models.MRequestTicket) (interface{}, error) {
	url := s.BaseURL + ticket.Endpoint.Path()

	body, err := s.Network.Get(ctx, url, ticket.Descriptor.Encode())
	if err != nil {
		return nil, err
	}

	s.Logger.Debug("%s #%d: %d bytes", ticket.Endpoint, ticket.Sequence, len(body))
	return decode(ticket.Endpoint, body)
}

// -----------------------------------------------------------------------------
// Decoding
// -----------------------------------------------------------------------------

func decode(endpoint models.Endpoint, body []byte) (interface{}, error) {
	switch endpoint {
	case models.EndpointMap, models.EndpointTable:
		return parseEarthquakes(body)
	case models.EndpointSummary:
		return parseSummary(body)
	case models.EndpointCharts:
		return parseCharts(body)
	default:
		return nil, fmt.Errorf("unknown endpoint %q", endpoint)
	}
}

// -----------------------------------------------------------------------------

func parseEarthquakes(body []byte) ([]models.MEarthquakeRecord, error) {
	const op = "decode " + models.PathEarthquakes
	if !startsWith(body, '[') {
		return nil, helpers.NewDecodeError(op, fmt.Errorf("expected a JSON array"))
	}
	var records []models.MEarthquakeRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, helpers.NewDecodeError(op, err)
	}
	if records == nil {
		records = []models.MEarthquakeRecord{}
	}
	return records, nil
}

// -----------------------------------------------------------------------------

func parseSummary(body []byte) (models.MSummaryStats, error) {
	const op = "decode " + models.PathSummary
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		if err == nil {
			err = fmt.Errorf("expected a JSON object")
		}
		return models.MSummaryStats{}, helpers.NewDecodeError(op, err)
	}
	if _, ok := fields["total"]; !ok {
		return models.MSummaryStats{}, helpers.NewDecodeError(op, fmt.Errorf("missing key \"total\""))
	}

	var stats models.MSummaryStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return models.MSummaryStats{}, helpers.NewDecodeError(op, err)
	}
	return stats, nil
}

// -----------------------------------------------------------------------------

func parseCharts(body []byte) (models.MChartDataset, error) {
	const op = "decode " + models.PathCharts
	if !startsWith(body, '{') {
		return models.MChartDataset{}, helpers.NewDecodeError(op, fmt.Errorf("expected a JSON object"))
	}
	var ds models.MChartDataset
	if err := json.Unmarshal(body, &ds); err != nil {
		return models.MChartDataset{}, helpers.NewDecodeError(op, err)
	}
	if err := ds.Validate(); err != nil {
		return models.MChartDataset{}, helpers.NewDecodeError(op, err)
	}
	return ds, nil
}

// -----------------------------------------------------------------------------

func startsWith(body []byte, c byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == c
}
