package handlers_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/chatwatch/internal/api/handlers"
	"github.com/donaldgifford/chatwatch/internal/rules"
)

const oneRule = `
rules:
  - id: error-rate
    metric_kind: request_outcome
    statistic: error_ratio
    window: 5m
    comparator: ">"
    threshold: 0.05
    min_sample_count: 20
    debounce: 10m
    severity: critical
`

const twoRules = oneRule + `
  - id: probe-down
    metric_kind: uptime_probe
    statistic: consecutive_failures
    window: 10m
    comparator: ">="
    threshold: 3
    min_sample_count: 1
    debounce: 15m
    severity: critical
`

func newRulesAPI(t *testing.T) (humatest.TestAPI, string, *rules.Manager) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneRule), 0o600))

	m, err := rules.NewManager(path, rules.WithLogger(quietLogger()))
	require.NoError(t, err)

	_, api := humatest.New(t)
	handlers.RegisterRulesRoutes(api, handlers.NewRulesHandler(m))
	return api, path, m
}

func TestListRules(t *testing.T) {
	t.Parallel()

	api, _, _ := newRulesAPI(t)

	resp := api.Get("/api/v1/rules")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"id":"error-rate"`)
	assert.Contains(t, resp.Body.String(), `"window":"5m0s"`)
}

func TestReloadRules_Success(t *testing.T) {
	t.Parallel()

	api, path, m := newRulesAPI(t)
	require.NoError(t, os.WriteFile(path, []byte(twoRules), 0o600))

	resp := api.Post("/api/v1/rules/reload")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"id":"probe-down"`)
	assert.Len(t, m.Current().Rules, 2)
	assert.Nil(t, m.LastError())
}

func TestReloadRules_FailureKeepsPreviousSet(t *testing.T) {
	t.Parallel()

	api, path, m := newRulesAPI(t)
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - id: broken\n    comparator: \"~\"\n"), 0o600))

	resp := api.Post("/api/v1/rules/reload")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "reloading rules")

	require.Len(t, m.Current().Rules, 1)
	assert.Equal(t, "error-rate", m.Current().Rules[0].ID)
	require.NotNil(t, m.LastError())
}
