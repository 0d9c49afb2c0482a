// Package store defines the archive store for resolved alerts, delivery
// attempts, and optionally persisted metric events. The engine and
// dispatcher depend on the Store interface only.
package store

import (
	"context"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// Store archives alert history. Writes are best effort from the caller's
// point of view: alert state never depends on a write succeeding.
type Store interface {
	// Alerts
	ArchiveAlert(ctx context.Context, inst *domain.AlertInstance) error
	ListArchivedAlerts(ctx context.Context, ruleID string, limit int) ([]domain.AlertInstance, error)

	// Deliveries
	RecordDelivery(ctx context.Context, d *domain.Delivery) error
	ListDeliveries(ctx context.Context, notificationID string) ([]domain.Delivery, error)

	// Metric events
	InsertMetricEvents(ctx context.Context, events []domain.MetricEvent) (int64, error)
	ListMetricEvents(ctx context.Context, since, until time.Time) ([]domain.MetricEvent, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close()
}
