// Package kafka persists audit events to a Kafka topic, one JSON record per
// event keyed by request id so a request's events land on one partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "rtbconsent/pkg/platform/audit"
)

const headerCategory = "category"

// DeliveryTimeout bounds how long a record may wait for an acknowledgement,
// retries included, when the caller's context carries no deadline.
const DeliveryTimeout = 10 * time.Second

type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Close()
}

// Store appends audit events to Kafka.
type Store struct {
	client producer
	topic  string
}

// New connects a producer to brokers. No network I/O happens until the first
// produce. Records fail after DeliveryTimeout unless opts override it.
func New(brokers []string, topic string, opts ...kgo.Opt) (*Store, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka audit store: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka audit store: topic is required")
	}
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(DeliveryTimeout),
		kgo.ProduceRequestTimeout(DeliveryTimeout),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Store{client: client, topic: topic}, nil
}

func newWithProducer(p producer, topic string) *Store {
	return &Store{client: p, topic: topic}
}

// Append produces event and waits for the broker acknowledgement. It returns
// once ctx is done even if the broker never answers.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.RequestID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: headerCategory, Value: []byte(event.Category)},
		},
	}
	acked := make(chan error, 1)
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		acked <- err
	})
	select {
	case err := <-acked:
		if err != nil {
			return fmt.Errorf("produce audit event: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("produce audit event: %w", ctx.Err())
	}
}

// Close releases the client.
func (s *Store) Close() {
	s.client.Close()
}
