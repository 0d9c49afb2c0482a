package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/chatwatch/internal/engine"
)

// Ticker runs one evaluation tick. It is satisfied by *engine.Engine.
type Ticker interface {
	Tick(ctx context.Context, trigger string) (*engine.TickReport, error)
}

// EvaluateHandler handles POST /api/v1/evaluate.
type EvaluateHandler struct {
	ticker Ticker
}

// NewEvaluateHandler creates an EvaluateHandler.
func NewEvaluateHandler(t Ticker) *EvaluateHandler {
	return &EvaluateHandler{ticker: t}
}

// EvaluateOutput is the response for POST /api/v1/evaluate.
type EvaluateOutput struct {
	Body *engine.TickReport
}

// Evaluate runs one tick now.
func (h *EvaluateHandler) Evaluate(ctx context.Context, _ *struct{}) (*EvaluateOutput, error) {
	report, err := h.ticker.Tick(ctx, engine.TriggerManual)
	if errors.Is(err, engine.ErrTickInProgress) {
		return nil, huma.Error409Conflict(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("evaluation failed: " + err.Error())
	}
	return &EvaluateOutput{Body: report}, nil
}

// RegisterEvaluateRoutes registers the manual evaluation route.
func RegisterEvaluateRoutes(api huma.API, h *EvaluateHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "evaluate-now",
		Method:      http.MethodPost,
		Path:        "/api/v1/evaluate",
		Summary:     "Run one evaluation tick",
		Description: "Evaluates every rule immediately. Returns 409 while another tick is running.",
		Tags:        []string{"engine"},
		Errors:      []int{http.StatusConflict},
	}, h.Evaluate)
}
