package store

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// Default MemoryStore capacities. Oldest entries are dropped first.
const (
	DefaultMemoryAlerts     = 5_000
	DefaultMemoryDeliveries = 20_000
	DefaultMemoryEvents     = 200_000
)

// MemoryStore is an in-process Store used when no database is configured
// and in tests. History is lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	alerts     []domain.AlertInstance
	deliveries []domain.Delivery
	events     []domain.MetricEvent

	maxAlerts     int
	maxDeliveries int
	maxEvents     int
}

// NewMemoryStore creates a MemoryStore with the default capacities.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		maxAlerts:     DefaultMemoryAlerts,
		maxDeliveries: DefaultMemoryDeliveries,
		maxEvents:     DefaultMemoryEvents,
	}
}

// Ping always succeeds.
func (*MemoryStore) Ping(context.Context) error { return nil }

// Migrate is a no-op.
func (*MemoryStore) Migrate(context.Context) error { return nil }

// Close is a no-op.
func (*MemoryStore) Close() {}

// ArchiveAlert stores a copy of inst, replacing an earlier copy with the same ID.
func (m *MemoryStore) ArchiveAlert(_ context.Context, inst *domain.AlertInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == inst.ID {
			m.alerts[i] = *inst
			return nil
		}
	}
	m.alerts = trimFront(append(m.alerts, *inst), m.maxAlerts)
	return nil
}

// ListArchivedAlerts returns archived instances, newest resolution first.
func (m *MemoryStore) ListArchivedAlerts(_ context.Context, ruleID string, limit int) ([]domain.AlertInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = clampLimit(limit)
	out := make([]domain.AlertInstance, 0, min(limit, len(m.alerts)))
	for i := range m.alerts {
		if ruleID == "" || m.alerts[i].RuleID == ruleID {
			out = append(out, m.alerts[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return resolvedAt(out[i]).After(resolvedAt(out[j]))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordDelivery stores a copy of d.
func (m *MemoryStore) RecordDelivery(_ context.Context, d *domain.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deliveries = trimFront(append(m.deliveries, *d), m.maxDeliveries)
	return nil
}

// ListDeliveries returns deliveries for a notification in recording order.
func (m *MemoryStore) ListDeliveries(_ context.Context, notificationID string) ([]domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Delivery
	for i := range m.deliveries {
		if m.deliveries[i].NotificationID == notificationID {
			out = append(out, m.deliveries[i])
		}
	}
	return out, nil
}

// InsertMetricEvents appends events.
func (m *MemoryStore) InsertMetricEvents(_ context.Context, events []domain.MetricEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = trimFront(append(m.events, events...), m.maxEvents)
	return int64(len(events)), nil
}

// ListMetricEvents returns events with since <= timestamp <= until, ordered
// by timestamp.
func (m *MemoryStore) ListMetricEvents(_ context.Context, since, until time.Time) ([]domain.MetricEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.MetricEvent
	for i := range m.events {
		ts := m.events[i].Timestamp
		if !ts.Before(since) && !ts.After(until) {
			out = append(out, m.events[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func resolvedAt(a domain.AlertInstance) time.Time {
	if a.ResolvedAt != nil {
		return *a.ResolvedAt
	}
	return a.LastEvaluatedAt
}

// trimFront drops the oldest entries so that at most limit remain.
func trimFront[T any](s []T, limit int) []T {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return append(s[:0:0], s[len(s)-limit:]...)
}
