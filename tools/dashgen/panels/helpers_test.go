package panels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `chatwatch_alerts_active{job="chatwatch"}`, Sel("alerts_active"))
	assert.Equal(t,
		`chatwatch_rule_reloads_total{job="chatwatch",result="failure"}`,
		Sel("rule_reloads_total", `result="failure"`),
	)
}
