package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// DefaultStreamMaxLen caps the Redis stream length (approximate trimming).
const DefaultStreamMaxLen = 10_000

// StreamAdder is the subset of redis.Cmdable used by RedisStreamSink.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamSink appends notifications to a Redis stream for external
// dashboards.
type RedisStreamSink struct {
	name   string
	client StreamAdder
	stream string
	maxLen int64
}

// NewRedisStreamSink creates a sink writing to stream.
func NewRedisStreamSink(client StreamAdder, stream string, maxLen int64) *RedisStreamSink {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &RedisStreamSink{
		name:   "redis",
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// NewRedisClient builds a go-redis client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Name implements Sink.
func (s *RedisStreamSink) Name() string { return s.name }

// Send XADDs one stream entry with flat fields plus the JSON notification.
func (s *RedisStreamSink) Send(ctx context.Context, n *domain.AlertNotification) error {
	defer observe(s.name, time.Now())

	payload, err := json.Marshal(n)
	if err != nil {
		return Permanent(fmt.Errorf("marshaling redis payload: %w", err))
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"rule_id":    n.RuleID,
			"alert_id":   n.AlertID,
			"transition": string(n.Transition),
			"severity":   string(n.Severity),
			"value":      strconv.FormatFloat(n.Value, 'f', -1, 64),
			"timestamp":  n.Timestamp.UTC().Format(time.RFC3339Nano),
			"payload":    string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("adding to redis stream %s: %w", s.stream, err)
	}
	return nil
}
