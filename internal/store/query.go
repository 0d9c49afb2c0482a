package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// clampLimit applies the default and maximum page size.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// historyQuery filters archived alerts.
type historyQuery struct {
	RuleID string
	Limit  int
}

// ToSQL builds the archived-alert query and its positional parameters.
func (q *historyQuery) ToSQL() (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if q.RuleID != "" {
		args = append(args, q.RuleID)
		conditions = append(conditions, fmt.Sprintf("rule_id = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(baseArchivedAlertsSelect)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	args = append(args, clampLimit(q.Limit))
	fmt.Fprintf(&b, " ORDER BY resolved_at DESC LIMIT $%d", len(args))

	return b.String(), args
}
