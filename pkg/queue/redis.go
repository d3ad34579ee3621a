package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	itemField     = "item"
	readBlock     = 2 * time.Second
	readBatchSize = 16
)

// RedisQueue is a Redis-streams backed queue. Workers join a consumer group
// so each item is delivered to exactly one of them.
type RedisQueue struct {
	client   redis.UniversalClient
	stream   string
	group    string
	consumer string
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewRedisQueue connects to Redis and ensures the stream and consumer group
// exist.
func NewRedisQueue(ctx context.Context, addr, stream, group, consumer string, logger *slog.Logger) (*RedisQueue, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	if stream == "" {
		return nil, errors.New("queue stream name is required")
	}

	if group == "" {
		return nil, errors.New("queue consumer group is required")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &RedisQueue{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		stopCh:   make(chan struct{}),
		logger: logger.With(
			"module", "queue",
			"stream", stream,
			"group", group,
		),
	}, nil
}

func isBusyGroup(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

func (q *RedisQueue) Enqueue(ctx context.Context, item *Item) error {
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{itemField: string(payload)},
	}).Err()
}

// Consume reads items from the stream until the context is cancelled or Close
// is called. Items are acknowledged only after the handler succeeds.
func (q *RedisQueue) Consume(ctx context.Context, handler Handler) error {
	q.wg.Add(1)

	go func() {
		defer q.wg.Done()

		q.logger.InfoContext(ctx, "Starting queue consumer", "consumer", q.consumer)

		for {
			select {
			case <-q.stopCh:
				q.logger.InfoContext(ctx, "Queue consumer stopped")

				return
			case <-ctx.Done():
				q.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

				return
			default:
				if err := q.readBatch(ctx, handler); err != nil {
					q.logger.ErrorContext(ctx, "Error reading from stream", "error", err)
					time.Sleep(1 * time.Second)
				}
			}
		}
	}()

	return nil
}

func (q *RedisQueue) readBatch(ctx context.Context, handler Handler) error {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    readBatchSize,
		Block:    readBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			q.handleMessage(ctx, handler, message)
		}
	}

	return nil
}

func (q *RedisQueue) handleMessage(ctx context.Context, handler Handler, message redis.XMessage) {
	raw, ok := message.Values[itemField].(string)
	if !ok {
		q.logger.WarnContext(ctx, "Discarding malformed stream entry", "message_id", message.ID)
		q.ack(ctx, message.ID)

		return
	}

	var item Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		q.logger.WarnContext(ctx, "Discarding undecodable item", "message_id", message.ID, "error", err)
		q.ack(ctx, message.ID)

		return
	}

	if err := handler(ctx, &item); err != nil {
		q.logger.ErrorContext(ctx, "Item handler failed, leaving item pending",
			"message_id", message.ID,
			"item_id", item.ID,
			"error", err,
		)

		return
	}

	q.ack(ctx, message.ID)
}

func (q *RedisQueue) ack(ctx context.Context, messageID string) {
	if err := q.client.XAck(ctx, q.stream, q.group, messageID).Err(); err != nil {
		q.logger.ErrorContext(ctx, "Failed to ack message", "message_id", messageID, "error", err)
	}
}

func (q *RedisQueue) Close(ctx context.Context) error {
	close(q.stopCh)
	q.wg.Wait()

	if err := q.client.Close(); err != nil {
		q.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)

		return err
	}

	return nil
}
