package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryQuery_ToSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     historyQuery
		wantWhere string
		wantArgs  []any
	}{
		{
			name:     "defaults",
			query:    historyQuery{},
			wantArgs: []any{defaultLimit},
		},
		{
			name:      "rule filter",
			query:     historyQuery{RuleID: "error-rate", Limit: 10},
			wantWhere: "WHERE rule_id = $1",
			wantArgs:  []any{"error-rate", 10},
		},
		{
			name:     "limit clamped",
			query:    historyQuery{Limit: 10_000},
			wantArgs: []any{maxLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sql, args := tt.query.ToSQL()
			assert.Equal(t, tt.wantArgs, args)
			assert.Contains(t, sql, "ORDER BY resolved_at DESC")
			if tt.wantWhere != "" {
				assert.Contains(t, sql, tt.wantWhere)
			} else {
				assert.NotContains(t, sql, "WHERE")
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, defaultLimit, clampLimit(0))
	assert.Equal(t, defaultLimit, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, maxLimit, clampLimit(maxLimit+1))
}
