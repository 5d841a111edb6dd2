package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	pstrings "veriscan/pkg/platform/strings"
)

// Publisher streams recorded scan events to Kafka for downstream consumers
// (dashboards, long-term analytics). Delivery is best-effort: the scan store
// is the source of truth, so publish failures are dropped behind a circuit
// breaker rather than retried on the request path.
type Publisher struct {
	client  *kgo.Client
	topic   string
	breaker *circuitBreaker
	logger  *slog.Logger
}

// NewPublisher connects to the brokers and ensures the topic exists.
// brokers is a comma-separated seed list.
func NewPublisher(ctx context.Context, brokers, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(pstrings.DedupeAndTrim(strings.Split(brokers, ","))...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProduceRequestTimeout(5 * time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{
		client:  client,
		topic:   topic,
		breaker: newCircuitBreaker(5, time.Minute),
		logger:  logger,
	}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Publish sends one event asynchronously, keyed by product ID so all scans of
// a product land in one partition. Failures are logged and counted against
// the breaker; they never propagate to the caller.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if !p.breaker.Allow() {
		p.logger.DebugContext(ctx, "scan publish dropped - circuit open",
			"event_id", event.ID,
		)
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode scan event", "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.ProductID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.breaker.RecordFailure()
			p.logger.WarnContext(ctx, "scan publish failed",
				"event_id", event.ID,
				"error", err,
			)
			return
		}
		p.breaker.RecordSuccess()
	})
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
