package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink mirrors activity entries to a Kafka topic for downstream
// consumers (analytics, long-term archival). Entries are buffered on a
// channel and produced by Run; when the buffer is full the entry is dropped
// with a warning rather than stalling a request, since the store copy is the
// source of truth.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	inbox  chan Entry
	logger *slog.Logger
}

// NewKafkaSink connects to the brokers and ensures the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create kafka topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("create kafka topic %q: %w", topic, resp.Err)
	}

	return &KafkaSink{
		client: client,
		topic:  topic,
		inbox:  make(chan Entry, 256),
		logger: logger,
	}, nil
}

// Publish enqueues an entry for asynchronous production. Never blocks.
func (s *KafkaSink) Publish(entry Entry) {
	select {
	case s.inbox <- entry:
	default:
		s.logger.Warn("activity kafka buffer full, dropping entry",
			"activity_id", entry.ID,
			"type", entry.Type,
		)
	}
}

// Run drains the inbox until ctx is cancelled, producing each entry as a
// JSON record keyed by user ID so one user's timeline stays ordered within
// a partition.
func (s *KafkaSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.client.Close()
			return ctx.Err()
		case entry := <-s.inbox:
			value, err := json.Marshal(entry)
			if err != nil {
				s.logger.Error("failed to marshal activity entry for kafka",
					"activity_id", entry.ID,
					"error", err,
				)
				continue
			}
			record := &kgo.Record{
				Topic: s.topic,
				Key:   []byte(entry.UserID.String()),
				Value: value,
			}
			s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
				if err != nil {
					s.logger.Error("failed to produce activity entry",
						"activity_id", entry.ID,
						"error", err,
					)
				}
			})
		}
	}
}
