package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docpipe/docpipe/pkg/queue"
)

const defaultStream = "docpipe.items"

// NewQueue builds the item queue from a URL. A redis:// URL gets the
// Redis-streams queue; "memory" keeps items in-process.
func NewQueue(ctx context.Context, logger *slog.Logger, queueURL, group, consumer string) queue.Queue {
	if queueURL == "memory" || queueURL == "" {
		return queue.NewMemoryQueue(0)
	}

	addr, ok := strings.CutPrefix(queueURL, "redis://")
	if !ok {
		panic("Unsupported queue URL: " + queueURL)
	}

	q, err := queue.NewRedisQueue(ctx, addr, defaultStream, group, consumer, logger)
	if err != nil {
		panic(fmt.Errorf("failed to initialize Redis queue: %w", err))
	}

	return q
}
