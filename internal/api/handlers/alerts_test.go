package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/chatwatch/internal/api/handlers"
	"github.com/donaldgifford/chatwatch/internal/rules"
	"github.com/donaldgifford/chatwatch/internal/store/mocks"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

var alertsT0 = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type staticActive []domain.AlertInstance

func (s staticActive) Active() []domain.AlertInstance { return s }

type staticReload struct {
	err *rules.ReloadError
}

func (s staticReload) LastError() *rules.ReloadError { return s.err }

func TestListAlerts(t *testing.T) {
	t.Parallel()

	active := staticActive{{
		ID:       "a-1",
		RuleID:   "error-rate",
		State:    domain.StateOpen,
		OpenedAt: alertsT0,
	}}
	reload := staticReload{err: &rules.ReloadError{Message: "rule 2: unknown comparator", At: alertsT0}}

	h := handlers.NewAlertsHandler(active, mocks.NewMockStore(t), reload)

	_, api := humatest.New(t)
	handlers.RegisterAlertsRoutes(api, h)

	resp := api.Get("/api/v1/alerts")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Alerts          []domain.AlertInstance `json:"alerts"`
		LastReloadError *rules.ReloadError     `json:"last_reload_error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, "error-rate", body.Alerts[0].RuleID)
	require.NotNil(t, body.LastReloadError)
	assert.Equal(t, "rule 2: unknown comparator", body.LastReloadError.Message)
}

func TestListAlerts_EmptyOmitsReloadError(t *testing.T) {
	t.Parallel()

	h := handlers.NewAlertsHandler(staticActive{}, mocks.NewMockStore(t), staticReload{})

	_, api := humatest.New(t)
	handlers.RegisterAlertsRoutes(api, h)

	resp := api.Get("/api/v1/alerts")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"alerts":[]}`, stripSchema(t, resp.Body.Bytes()))
}

func TestAlertHistory(t *testing.T) {
	t.Parallel()

	resolved := alertsT0.Add(time.Hour)

	tests := []struct {
		name       string
		path       string
		wantRule   string
		wantLimit  int
		rows       []domain.AlertInstance
		err        error
		wantStatus int
	}{
		{
			name:      "defaults",
			path:      "/api/v1/alerts/history",
			wantLimit: 50,
			rows: []domain.AlertInstance{
				{ID: "a-2", RuleID: "error-rate", State: domain.StateResolved, ResolvedAt: &resolved},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "filter and limit",
			path:       "/api/v1/alerts/history?rule_id=probe-down&limit=5",
			wantRule:   "probe-down",
			wantLimit:  5,
			wantStatus: http.StatusOK,
		},
		{
			name:       "limit is capped",
			path:       "/api/v1/alerts/history?limit=10000",
			wantLimit:  500,
			wantStatus: http.StatusOK,
		},
		{
			name:       "store error",
			path:       "/api/v1/alerts/history",
			wantLimit:  50,
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := mocks.NewMockStore(t)
			ms.EXPECT().
				ListArchivedAlerts(mock.Anything, tt.wantRule, tt.wantLimit).
				Return(tt.rows, tt.err)

			h := handlers.NewAlertsHandler(staticActive{}, ms, nil)

			_, api := humatest.New(t)
			handlers.RegisterAlertsRoutes(api, h)

			resp := api.Get(tt.path)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				Alerts []domain.AlertInstance `json:"alerts"`
			}
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			assert.Len(t, body.Alerts, len(tt.rows))
		})
	}
}

// stripSchema drops the $schema link huma adds to object responses.
func stripSchema(t *testing.T, b []byte) string {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	delete(m, "$schema")
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}

var _ handlers.AlertHistoryProvider = (*mocks.MockStore)(nil)

func TestAlertHistory_NilRowsEncodeEmpty(t *testing.T) {
	t.Parallel()

	ms := mocks.NewMockStore(t)
	ms.EXPECT().
		ListArchivedAlerts(mock.Anything, "", 50).
		RunAndReturn(func(context.Context, string, int) ([]domain.AlertInstance, error) {
			return nil, nil
		})

	h := handlers.NewAlertsHandler(staticActive{}, ms, nil)

	_, api := humatest.New(t)
	handlers.RegisterAlertsRoutes(api, h)

	resp := api.Get("/api/v1/alerts/history")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"alerts":[]`)
}
