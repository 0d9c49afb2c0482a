package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// ArchiveAlert writes a resolved instance. Re-archiving the same ID updates it.
func (s *PostgresStore) ArchiveAlert(ctx context.Context, inst *domain.AlertInstance) error {
	_, err := s.pool.Exec(ctx, queryArchiveAlert, pgx.NamedArgs{
		"id":                inst.ID,
		"rule_id":           inst.RuleID,
		"state":             string(inst.State),
		"opened_at":         inst.OpenedAt,
		"last_notified_at":  inst.LastNotifiedAt,
		"last_evaluated_at": inst.LastEvaluatedAt,
		"last_value":        inst.LastValue,
		"notify_count":      inst.NotifyCount,
		"resolved_at":       inst.ResolvedAt,
	})
	if err != nil {
		return fmt.Errorf("archiving alert: %w", err)
	}
	return nil
}

// ListArchivedAlerts returns archived instances, newest resolution first.
func (s *PostgresStore) ListArchivedAlerts(
	ctx context.Context,
	ruleID string,
	limit int,
) ([]domain.AlertInstance, error) {
	q := historyQuery{RuleID: ruleID, Limit: limit}
	sql, args := q.ToSQL()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying archived alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.AlertInstance
	for rows.Next() {
		var (
			a     domain.AlertInstance
			state string
		)
		if err := rows.Scan(
			&a.ID, &a.RuleID, &state, &a.OpenedAt, &a.LastNotifiedAt,
			&a.LastEvaluatedAt, &a.LastValue, &a.NotifyCount, &a.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning archived alert: %w", err)
		}
		a.State = domain.AlertState(state)
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordDelivery stores the outcome of delivering one notification to one sink.
func (s *PostgresStore) RecordDelivery(ctx context.Context, d *domain.Delivery) error {
	_, err := s.pool.Exec(ctx, queryRecordDelivery,
		d.NotificationID, d.RuleID, d.Sink, d.Attempts, d.Succeeded, d.ErrorText, d.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("recording delivery: %w", err)
	}
	return nil
}

// ListDeliveries returns every delivery recorded for a notification.
func (s *PostgresStore) ListDeliveries(ctx context.Context, notificationID string) ([]domain.Delivery, error) {
	rows, err := s.pool.Query(ctx, queryListDeliveries, notificationID)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	defer rows.Close()

	var out []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(
			&d.NotificationID, &d.RuleID, &d.Sink, &d.Attempts,
			&d.Succeeded, &d.ErrorText, &d.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning delivery: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// InsertMetricEvents bulk-loads events with COPY.
func (s *PostgresStore) InsertMetricEvents(ctx context.Context, events []domain.MetricEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"metric_events"},
		[]string{"kind", "value", "observed_at", "tags"},
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			return []any{string(e.Kind), e.Value, e.Timestamp, e.Tags}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("copying metric events: %w", err)
	}
	return n, nil
}

// ListMetricEvents returns stored events with since <= timestamp <= until.
func (s *PostgresStore) ListMetricEvents(ctx context.Context, since, until time.Time) ([]domain.MetricEvent, error) {
	rows, err := s.pool.Query(ctx, queryListMetricEvents, since, until)
	if err != nil {
		return nil, fmt.Errorf("querying metric events: %w", err)
	}
	defer rows.Close()

	var out []domain.MetricEvent
	for rows.Next() {
		var (
			kind  string
			value float64
			ts    time.Time
			tags  map[string]string
		)
		if err := rows.Scan(&kind, &value, &ts, &tags); err != nil {
			return nil, fmt.Errorf("scanning metric event: %w", err)
		}
		out = append(out, domain.NewMetricEvent(domain.MetricKind(kind), value, ts.UTC(), tags))
	}
	return out, rows.Err()
}
