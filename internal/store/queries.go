package store

// SQL query constants organized by entity.

// Alert archive queries.
const (
	queryArchiveAlert = `
		INSERT INTO alert_archive (
			id, rule_id, state, opened_at, last_notified_at,
			last_evaluated_at, last_value, notify_count, resolved_at
		) VALUES (
			@id, @rule_id, @state, @opened_at, @last_notified_at,
			@last_evaluated_at, @last_value, @notify_count, @resolved_at
		)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			last_evaluated_at = EXCLUDED.last_evaluated_at,
			last_value = EXCLUDED.last_value,
			notify_count = EXCLUDED.notify_count,
			resolved_at = EXCLUDED.resolved_at`

	baseArchivedAlertsSelect = `SELECT id, rule_id, state, opened_at, last_notified_at,
	last_evaluated_at, last_value, notify_count, resolved_at
FROM alert_archive`
)

// Delivery queries.
const (
	queryRecordDelivery = `
		INSERT INTO deliveries (
			notification_id, rule_id, sink, attempts, succeeded, error_text, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	queryListDeliveries = `
		SELECT notification_id, rule_id, sink, attempts, succeeded,
			COALESCE(error_text, ''), completed_at
		FROM deliveries
		WHERE notification_id = $1
		ORDER BY completed_at, sink`
)

// Metric event queries.
const (
	queryListMetricEvents = `
		SELECT kind, value, observed_at, COALESCE(tags, '{}')
		FROM metric_events
		WHERE observed_at >= $1 AND observed_at <= $2
		ORDER BY observed_at, id`
)
