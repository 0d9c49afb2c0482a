package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func ruleWithID(id string) domain.Rule {
	r := errorRateRule()
	r.ID = id
	r.Debounce = 0
	return r
}

func TestTracker_ApplyLifecycle(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10)
	rule := ruleWithID("tracker-lifecycle")

	res := tr.Apply(&rule, breached(0.08), t0)
	require.NotNil(t, res.Notification)

	inst, ok := tr.Get(rule.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StateOpen, inst.State)
	assert.Len(t, tr.Active(), 1)

	res = tr.Apply(&rule, cleared(0.01), t0.Add(time.Minute))
	assert.True(t, res.Archived)

	_, ok = tr.Get(rule.ID)
	assert.False(t, ok)
	assert.Empty(t, tr.Active())

	archived := tr.Archived("", 0)
	require.Len(t, archived, 1)
	assert.Equal(t, inst.ID, archived[0].ID)
	assert.Equal(t, domain.StateResolved, archived[0].State)
}

func TestTracker_ArchiveIsBoundedNewestFirst(t *testing.T) {
	t.Parallel()

	tr := NewTracker(3)
	rule := ruleWithID("tracker-ring")

	var ids []string
	for i := range 5 {
		at := t0.Add(time.Duration(i) * time.Minute)
		res := tr.Apply(&rule, breached(0.08), at)
		ids = append(ids, res.Next.ID)
		tr.Apply(&rule, cleared(0.01), at.Add(30*time.Second))
	}

	archived := tr.Archived("", 0)
	require.Len(t, archived, 3)
	assert.Equal(t, ids[4], archived[0].ID)
	assert.Equal(t, ids[3], archived[1].ID)
	assert.Equal(t, ids[2], archived[2].ID)

	assert.Len(t, tr.Archived("", 2), 2)
	assert.Empty(t, tr.Archived("other", 0))
}

func TestTracker_ArchivedFiltersByRule(t *testing.T) {
	t.Parallel()

	tr := NewTracker(0)
	a := ruleWithID("tracker-a")
	b := ruleWithID("tracker-b")

	for _, r := range []*domain.Rule{&a, &b, &a} {
		tr.Apply(r, breached(0.08), t0)
		tr.Apply(r, cleared(0.01), t0.Add(time.Minute))
	}

	assert.Len(t, tr.Archived("tracker-a", 0), 2)
	assert.Len(t, tr.Archived("tracker-b", 0), 1)
	assert.Len(t, tr.Archived("", 0), 3)
}

func TestTracker_ReconcileResolvesRemovedRules(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10)
	keep := ruleWithID("tracker-keep")
	drop1 := ruleWithID("tracker-drop-b")
	drop2 := ruleWithID("tracker-drop-a")

	for _, r := range []*domain.Rule{&keep, &drop1, &drop2} {
		tr.Apply(r, breached(0.08), t0)
	}

	results := tr.Reconcile(&domain.RuleSet{Rules: []domain.Rule{keep}}, t0.Add(time.Minute))
	require.Len(t, results, 2)
	assert.Equal(t, "tracker-drop-a", results[0].Next.RuleID)
	assert.Equal(t, "tracker-drop-b", results[1].Next.RuleID)
	for _, res := range results {
		assert.True(t, res.Archived)
		require.NotNil(t, res.Notification)
		assert.Equal(t, domain.TransitionResolved, res.Notification.Transition)
		assert.Contains(t, res.Notification.Message, "[rule removed]")
	}

	active := tr.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "tracker-keep", active[0].RuleID)

	assert.Empty(t, tr.Reconcile(&domain.RuleSet{Rules: []domain.Rule{keep}}, t0.Add(2*time.Minute)))
}

func TestTracker_ActiveSortedByRuleID(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10)
	for _, id := range []string{"tracker-c", "tracker-a", "tracker-b"} {
		r := ruleWithID(id)
		tr.Apply(&r, breached(0.08), t0)
	}

	active := tr.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "tracker-a", active[0].RuleID)
	assert.Equal(t, "tracker-b", active[1].RuleID)
	assert.Equal(t, "tracker-c", active[2].RuleID)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	tr := NewTracker(50)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := ruleWithID(fmt.Sprintf("tracker-concurrent-%d", i))
			for j := range 20 {
				at := t0.Add(time.Duration(j) * time.Minute)
				if j%2 == 0 {
					tr.Apply(&r, breached(0.08), at)
				} else {
					tr.Apply(&r, cleared(0.01), at)
				}
				_ = tr.Active()
				_ = tr.Archived("", 5)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, tr.Active())
	assert.Len(t, tr.Archived("", 0), 50)
}
