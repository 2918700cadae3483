// Package redpanda provides Redpanda/Kafka queue integration for async
// turn processing. Messages are produced transactionally and consumed
// with read-committed isolation so a turn is processed at most once.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/danielgaio/moto-advisor/internal/adapter/observability"
	"github.com/danielgaio/moto-advisor/internal/domain"
)

// TopicTurns is the Kafka topic for queued conversation turns.
const TopicTurns = "advisor-turns"

// Producer wraps a transactional Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	topic  string
	// Serializes transactions so concurrent enqueues do not interleave.
	txLock chan struct{}
}

// NewProducer constructs a Producer against the given brokers.
func NewProducer(brokers []string) (*Producer, error) {
	return NewProducerWithTopic(brokers, "moto-advisor-producer", TopicTurns)
}

// NewProducerWithTopic constructs a Producer with a custom transactional ID
// and topic. Tests use unique topics for isolation.
func NewProducerWithTopic(brokers []string, transactionalID, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=queue.producer: no seed brokers provided")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
	)
	if err != nil {
		return nil, fmt.Errorf("op=queue.producer: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", topic), slog.Any("error", err))
	}

	return &Producer{
		client: client,
		topic:  topic,
		txLock: make(chan struct{}, 1),
	}, nil
}

// EnqueueTurn enqueues a turn job transactionally and returns the job id.
func (p *Producer) EnqueueTurn(ctx context.Context, payload domain.TurnTaskPayload) (string, error) {
	select {
	case p.txLock <- struct{}{}:
		defer func() { <-p.txLock }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := p.client.BeginTransaction(); err != nil {
		return "", fmt.Errorf("op=queue.enqueue: begin transaction: %w", err)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		p.abort(ctx)
		return "", fmt.Errorf("op=queue.enqueue: marshal payload: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(payload.JobID), // job id as key for per-job ordering
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "job_id", Value: []byte(payload.JobID)},
		},
	}

	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		p.abort(ctx)
		return "", fmt.Errorf("op=queue.enqueue: produce: %w", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return "", fmt.Errorf("op=queue.enqueue: commit transaction: %w", err)
	}

	observability.EnqueueTurn("async")
	slog.Info("turn enqueued", slog.String("topic", p.topic), slog.String("job_id", payload.JobID))
	return payload.JobID, nil
}

func (p *Producer) abort(ctx context.Context) {
	if err := p.client.EndTransaction(ctx, kgo.TryAbort); err != nil {
		slog.Error("failed to abort transaction", slog.Any("error", err))
	}
}

// Close closes the underlying client.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}

var _ domain.Queue = (*Producer)(nil)
