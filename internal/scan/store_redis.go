package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"veriscan/pkg/geo"
)

// Redis key layout. Events are immutable JSON blobs; sorted sets index them
// by time and result, and a GEO set indexes located events for radius
// queries.
const (
	redisKeyEvent  = "scan:event:"  // + event id -> JSON
	redisKeyByTime = "scan:events"  // zset: score = occurredAt unix nanos
	redisKeyByRes  = "scan:events:" // + result -> zset, same scores
	redisKeyGeo    = "scan:geo"     // geo set of located event ids
)

// RedisStore is the production scan store. Radius queries run on the Redis
// geospatial index instead of scanning history.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Append persists the event and updates all indexes atomically.
func (s *RedisStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}

	id := event.ID.String()
	score := float64(event.OccurredAt.UnixNano())

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyEvent+id, payload, 0)
	pipe.ZAdd(ctx, redisKeyByTime, redis.Z{Score: score, Member: id})
	pipe.ZAdd(ctx, redisKeyByRes+string(event.Result), redis.Z{Score: score, Member: id})
	if event.Location != nil {
		pipe.GeoAdd(ctx, redisKeyGeo, &redis.GeoLocation{
			Name:      id,
			Longitude: event.Location.Lon,
			Latitude:  event.Location.Lat,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append scan event: %w", err)
	}
	return nil
}

// List returns matching events, newest first.
func (s *RedisStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	min, max := "-inf", "+inf"
	if !filter.From.IsZero() {
		min = strconv.FormatInt(filter.From.UnixNano(), 10)
	}
	if !filter.To.IsZero() {
		max = strconv.FormatInt(filter.To.UnixNano(), 10)
	}

	ids, err := s.client.ZRevRangeByScore(ctx, redisKeyByTime, &redis.ZRangeBy{
		Min: min,
		Max: max,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list scan events: %w", err)
	}

	events, err := s.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	matched := events[:0]
	for _, e := range events {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// ListByResult returns all events with any of the given results.
func (s *RedisStore) ListByResult(ctx context.Context, results ...Result) ([]Event, error) {
	var out []Event
	for _, r := range results {
		ids, err := s.client.ZRange(ctx, redisKeyByRes+string(r), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("list %s events: %w", r, err)
		}
		events, err := s.fetch(ctx, ids)
		if err != nil {
			return nil, err
		}
		out = append(out, events...)
	}
	return out, nil
}

// Near runs a radius query on the geo index, nearest first.
func (s *RedisStore) Near(ctx context.Context, center geo.Point, radiusMeters float64, limit int) ([]Event, error) {
	ids, err := s.client.GeoSearch(ctx, redisKeyGeo, &redis.GeoSearchQuery{
		Longitude:  center.Lon,
		Latitude:   center.Lat,
		Radius:     radiusMeters,
		RadiusUnit: "m",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}
	return s.fetch(ctx, ids)
}

// CountByResult returns event totals grouped by result.
func (s *RedisStore) CountByResult(ctx context.Context) (map[Result]int64, error) {
	counts := make(map[Result]int64, 3)
	for _, r := range []Result{ResultNotFound, ResultAuthentic, ResultAlreadySold} {
		n, err := s.client.ZCard(ctx, redisKeyByRes+string(r)).Result()
		if err != nil {
			return nil, fmt.Errorf("count %s events: %w", r, err)
		}
		if n > 0 {
			counts[r] = n
		}
	}
	return counts, nil
}

func (s *RedisStore) fetch(ctx context.Context, ids []string) ([]Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisKeyEvent + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch scan events: %w", err)
	}

	events := make([]Event, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // index entry without a record; skip
		}
		var e Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

var _ Store = (*RedisStore)(nil)
