package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// RuleReloader exposes the active rule set and reloads it from disk. It is
// satisfied by *rules.Manager.
type RuleReloader interface {
	Current() *domain.RuleSet
	Reload() (*domain.RuleSet, error)
}

// RulesHandler serves the active rule set.
type RulesHandler struct {
	rules RuleReloader
}

// NewRulesHandler creates a RulesHandler.
func NewRulesHandler(r RuleReloader) *RulesHandler {
	return &RulesHandler{rules: r}
}

// RuleSetOutput wraps the active rule set.
type RuleSetOutput struct {
	Body *domain.RuleSet
}

// ListRules returns the active rule set.
func (h *RulesHandler) ListRules(_ context.Context, _ *struct{}) (*RuleSetOutput, error) {
	set := h.rules.Current()
	if set == nil {
		set = &domain.RuleSet{Rules: []domain.Rule{}}
	}
	return &RuleSetOutput{Body: set}, nil
}

// ReloadRules re-reads the rule file. A failed reload leaves the previous
// rule set active and returns 422.
func (h *RulesHandler) ReloadRules(_ context.Context, _ *struct{}) (*RuleSetOutput, error) {
	set, err := h.rules.Reload()
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return &RuleSetOutput{Body: set}, nil
}

// RegisterRulesRoutes registers the rule routes on the Huma API.
func RegisterRulesRoutes(api huma.API, h *RulesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rules",
		Method:      http.MethodGet,
		Path:        "/api/v1/rules",
		Summary:     "List rules",
		Description: "Returns the active rule set.",
		Tags:        []string{"rules"},
	}, h.ListRules)

	huma.Register(api, huma.Operation{
		OperationID: "reload-rules",
		Method:      http.MethodPost,
		Path:        "/api/v1/rules/reload",
		Summary:     "Reload rules",
		Description: "Re-reads the rule file. On failure the previous rules stay active.",
		Tags:        []string{"rules"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.ReloadRules)
}
