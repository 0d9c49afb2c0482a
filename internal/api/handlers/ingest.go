package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/chatwatch/internal/metrics"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// Ingester records metric events. It is satisfied by *engine.Engine.
type Ingester interface {
	Ingest(ctx context.Context, events []domain.MetricEvent) (int, []error)
}

// IngestHandler accepts metric pushes from the chat service.
type IngestHandler struct {
	ingester Ingester
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(i Ingester) *IngestHandler {
	return &IngestHandler{ingester: i}
}

// IngestRecordInput carries one RequestRecord. The body is decoded by hand so
// malformed records are counted as ingestion errors instead of being
// rejected by schema validation.
type IngestRecordInput struct {
	RawBody []byte
}

// IngestBatchInput carries a batch envelope of metric events and request
// records.
type IngestBatchInput struct {
	RawBody []byte
}

// IngestResult reports how many events were accepted.
type IngestResult struct {
	Accepted int      `json:"accepted"         doc:"Metric events recorded"`
	Rejected int      `json:"rejected"         doc:"Records or events dropped as malformed"`
	Errors   []string `json:"errors,omitempty" doc:"Reasons for rejected records"`
}

// IngestOutput is the response for the ingest endpoints.
type IngestOutput struct {
	Body IngestResult
}

type batchEnvelope struct {
	Events   []json.RawMessage `json:"events"`
	Requests []json.RawMessage `json:"requests"`
}

// IngestRecord handles POST /api/v1/metrics.
func (h *IngestHandler) IngestRecord(ctx context.Context, input *IngestRecordInput) (*IngestOutput, error) {
	var rec domain.RequestRecord
	if err := json.Unmarshal(input.RawBody, &rec); err != nil {
		countDecodeError()
		return nil, huma.Error422UnprocessableEntity("rejected metric event: decode: " + err.Error())
	}

	events, err := rec.Events()
	if err != nil {
		countIngestionError(err)
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	accepted, errs := h.ingester.Ingest(ctx, events)
	if len(errs) > 0 {
		return nil, huma.Error422UnprocessableEntity(errors.Join(errs...).Error())
	}

	out := &IngestOutput{}
	out.Body.Accepted = accepted
	return out, nil
}

// IngestBatch handles POST /api/v1/metrics/batch. Only an undecodable
// envelope fails the request; bad records inside it are reported.
func (h *IngestHandler) IngestBatch(ctx context.Context, input *IngestBatchInput) (*IngestOutput, error) {
	var env batchEnvelope
	if err := json.Unmarshal(input.RawBody, &env); err != nil {
		countDecodeError()
		return nil, huma.Error422UnprocessableEntity("invalid batch envelope: " + err.Error())
	}

	var (
		events   []domain.MetricEvent
		problems []string
	)
	for _, raw := range env.Events {
		var ev domain.MetricEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			countDecodeError()
			problems = append(problems, "rejected metric event: decode: "+err.Error())
			continue
		}
		events = append(events, domain.NewMetricEvent(ev.Kind, ev.Value, ev.Timestamp, ev.Tags))
	}
	for _, raw := range env.Requests {
		var rec domain.RequestRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			countDecodeError()
			problems = append(problems, "rejected metric event: decode: "+err.Error())
			continue
		}
		expanded, err := rec.Events()
		if err != nil {
			countIngestionError(err)
			problems = append(problems, err.Error())
			continue
		}
		events = append(events, expanded...)
	}

	accepted := 0
	if len(events) > 0 {
		var errs []error
		accepted, errs = h.ingester.Ingest(ctx, events)
		for _, err := range errs {
			problems = append(problems, err.Error())
		}
	}

	out := &IngestOutput{}
	out.Body.Accepted = accepted
	out.Body.Rejected = len(problems)
	out.Body.Errors = problems
	return out, nil
}

// countIngestionError counts errors that never reach the aggregator, which
// counts its own rejections.
func countIngestionError(err error) {
	reason := domain.ReasonDecode
	var ie *domain.IngestionError
	if errors.As(err, &ie) {
		reason = ie.Reason
	}
	metrics.IngestionErrorsTotal.WithLabelValues(string(reason)).Inc()
}

func countDecodeError() {
	metrics.IngestionErrorsTotal.WithLabelValues(string(domain.ReasonDecode)).Inc()
}

// RegisterIngestRoutes registers the metric ingestion routes on the Huma API.
func RegisterIngestRoutes(api huma.API, h *IngestHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "ingest-request-record",
		Method:        http.MethodPost,
		Path:          "/api/v1/metrics",
		Summary:       "Ingest one request record",
		Description:   "Records the outcome, latency and cost of one chat request.",
		Tags:          []string{"metrics"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, h.IngestRecord)

	huma.Register(api, huma.Operation{
		OperationID:   "ingest-metric-batch",
		Method:        http.MethodPost,
		Path:          "/api/v1/metrics/batch",
		Summary:       "Ingest a batch of metric events",
		Description:   "Records raw metric events and request records. Malformed entries are dropped and reported.",
		Tags:          []string{"metrics"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, h.IngestBatch)
}
