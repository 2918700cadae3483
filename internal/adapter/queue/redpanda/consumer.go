package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/danielgaio/moto-advisor/internal/domain"
	"github.com/danielgaio/moto-advisor/internal/usecase"
)

// Consumer pulls queued turns and processes them with bounded concurrency.
type Consumer struct {
	client  *kgo.Client
	jobs    domain.TurnJobRepository
	records domain.TurnRecordRepository
	turns   *usecase.TurnService

	topic   string
	groupID string
	// Semaphore bounding concurrent turn handlers.
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewConsumer constructs a Consumer in the given consumer group.
func NewConsumer(brokers []string, groupID string, jobs domain.TurnJobRepository, records domain.TurnRecordRepository, turns *usecase.TurnService, maxConcurrency int) (*Consumer, error) {
	return NewConsumerWithTopic(brokers, groupID, TopicTurns, jobs, records, turns, maxConcurrency)
}

// NewConsumerWithTopic constructs a Consumer reading from a custom topic.
func NewConsumerWithTopic(brokers []string, groupID, topic string, jobs domain.TurnJobRepository, records domain.TurnRecordRepository, turns *usecase.TurnService, maxConcurrency int) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=queue.consumer: no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("op=queue.consumer: missing group ID")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))),
	)

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("op=queue.consumer: %w", err)
	}

	return &Consumer{
		client:  client,
		jobs:    jobs,
		records: records,
		turns:   turns,
		topic:   topic,
		groupID: groupID,
		sem:     make(chan struct{}, maxConcurrency),
	}, nil
}

// Start polls for records until the context is cancelled. In-flight handlers
// are allowed to finish before Start returns.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("starting turn consumer",
		slog.String("group_id", c.groupID),
		slog.String("topic", c.topic),
		slog.Int("max_concurrency", cap(c.sem)))

	for {
		if ctx.Err() != nil {
			break
		}
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			break
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			fatal := false
			for _, fe := range errs {
				if fe.Err == context.Canceled {
					fatal = true
					continue
				}
				slog.Error("fetch error",
					slog.String("topic", fe.Topic),
					slog.Int("partition", int(fe.Partition)),
					slog.Any("error", fe.Err))
			}
			if fatal {
				break
			}
			continue
		}

		fetches.EachRecord(func(rec *kgo.Record) {
			select {
			case c.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			c.wg.Add(1)
			go func(rec *kgo.Record) {
				defer c.wg.Done()
				defer func() { <-c.sem }()
				c.processRecord(ctx, rec)
			}(rec)
		})
	}

	c.wg.Wait()
	slog.Info("turn consumer stopped", slog.String("group_id", c.groupID))
	return ctx.Err()
}

func (c *Consumer) processRecord(ctx context.Context, rec *kgo.Record) {
	var payload domain.TurnTaskPayload
	if err := json.Unmarshal(rec.Value, &payload); err != nil {
		// Poison message: mark consumed so it is not redelivered forever.
		slog.Error("dropping malformed turn payload",
			slog.String("topic", rec.Topic),
			slog.Int64("offset", rec.Offset),
			slog.Any("error", err))
		c.client.MarkCommitRecords(rec)
		return
	}

	if err := HandleTurn(ctx, c.jobs, c.records, c.turns, payload); err != nil {
		slog.Error("turn processing failed",
			slog.String("job_id", payload.JobID),
			slog.Any("error", err))
	}
	c.client.MarkCommitRecords(rec)
}

// Close closes the underlying client.
func (c *Consumer) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
