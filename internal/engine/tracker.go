package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/donaldgifford/chatwatch/internal/metrics"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// DefaultArchiveSize is how many resolved instances the Tracker keeps in memory.
const DefaultArchiveSize = 500

// removedSuffix is appended to the message of a resolution caused by the
// rule disappearing from the rule set.
const removedSuffix = " [rule removed]"

type tracked struct {
	inst domain.AlertInstance
	rule domain.Rule
}

// Tracker holds at most one live alert instance per rule and a bounded ring
// of recently resolved instances.
type Tracker struct {
	mu      sync.Mutex
	active  map[string]*tracked
	archive []domain.AlertInstance
	next    int
	full    bool
}

// NewTracker creates a Tracker whose archive holds up to size instances.
func NewTracker(size int) *Tracker {
	if size <= 0 {
		size = DefaultArchiveSize
	}
	return &Tracker{
		active:  make(map[string]*tracked),
		archive: make([]domain.AlertInstance, size),
	}
}

// Apply runs Step for rule against its current instance and records the result.
func (t *Tracker) Apply(rule *domain.Rule, outcome domain.RuleOutcome, now time.Time) StepResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	var current *domain.AlertInstance
	if tr, ok := t.active[rule.ID]; ok {
		current = &tr.inst
	}

	res := Step(current, rule, outcome, now)
	t.record(rule, res)
	return res
}

// Reconcile resolves every active instance whose rule is no longer in set.
func (t *Tracker) Reconcile(set *domain.RuleSet, now time.Time) []StepResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []string
	for id := range t.active {
		if _, ok := set.Get(id); !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)

	results := make([]StepResult, 0, len(removed))
	for _, id := range removed {
		tr := t.active[id]
		res := Step(&tr.inst, &tr.rule, domain.RuleOutcome{
			RuleID:    id,
			Statistic: tr.rule.EffectiveStatistic(),
			Value:     tr.inst.LastValue,
		}, now)
		if res.Notification != nil {
			res.Notification.Message += removedSuffix
		}
		t.record(&tr.rule, res)
		results = append(results, res)
	}
	return results
}

// record stores a step result. Caller holds mu.
func (t *Tracker) record(rule *domain.Rule, res StepResult) {
	switch {
	case res.Next == nil:
		delete(t.active, rule.ID)
	case res.Archived:
		delete(t.active, rule.ID)
		t.archive[t.next] = *res.Next
		t.next = (t.next + 1) % len(t.archive)
		if t.next == 0 {
			t.full = true
		}
	default:
		t.active[rule.ID] = &tracked{inst: *res.Next, rule: *rule}
	}

	if res.Notification != nil {
		metrics.AlertTransitionsTotal.WithLabelValues(rule.ID, string(res.Notification.Transition)).Inc()
	}
	metrics.AlertsActive.Set(float64(len(t.active)))
}

// Get returns the live instance for ruleID.
func (t *Tracker) Get(ruleID string) (domain.AlertInstance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.active[ruleID]
	if !ok {
		return domain.AlertInstance{}, false
	}
	return tr.inst, true
}

// Active returns copies of the live instances ordered by rule ID.
func (t *Tracker) Active() []domain.AlertInstance {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.AlertInstance, 0, len(t.active))
	for _, tr := range t.active {
		out = append(out, tr.inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}

// Archived returns resolved instances, most recently resolved first,
// optionally filtered by rule ID and capped at limit (0 = no cap).
func (t *Tracker) Archived(ruleID string, limit int) []domain.AlertInstance {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.next
	if t.full {
		n = len(t.archive)
	}

	out := make([]domain.AlertInstance, 0, n)
	for i := range n {
		// Walk backwards from the newest slot.
		idx := (t.next - 1 - i + len(t.archive)) % len(t.archive)
		inst := t.archive[idx]
		if ruleID != "" && inst.RuleID != ruleID {
			continue
		}
		out = append(out, inst)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
