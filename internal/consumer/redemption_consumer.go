package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/fitstore/internal/publisher"
)

const DefaultGroupID = "fitstore-catalog"

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Invalidator drops cached catalog state after stock changed elsewhere.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// RedemptionConsumer listens for redemptions made by any storefront instance
// sharing the catalog cache and invalidates the cache, since every redemption
// changes stock.
type RedemptionConsumer struct {
	reader   Reader
	catalog  Invalidator
	logger   *slog.Logger
	minDelay time.Duration
	maxDelay time.Duration
}

func NewRedemptionConsumer(catalog Invalidator, logger *slog.Logger, topic, groupID string, brokers ...string) *RedemptionConsumer {
	if topic == "" {
		topic = publisher.DefaultTopic
	}
	if groupID == "" {
		groupID = DefaultGroupID
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newRedemptionConsumer(reader, catalog, logger)
}

func newRedemptionConsumer(r Reader, catalog Invalidator, logger *slog.Logger) *RedemptionConsumer {
	return &RedemptionConsumer{
		reader:   r,
		catalog:  catalog,
		logger:   logger,
		minDelay: 100 * time.Millisecond,
		maxDelay: 5 * time.Second,
	}
}

// Run consumes until ctx is done or the reader is closed. Read errors are
// retried with exponential backoff.
func (c *RedemptionConsumer) Run(ctx context.Context) {
	delay := c.minDelay
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.processMessage(ctx)
		switch {
		case err == nil:
			delay = c.minDelay
			continue
		case errors.Is(err, io.EOF):
			c.logger.InfoContext(ctx, "redemption reader closed")
			return
		}

		c.logger.WarnContext(ctx, "error reading redemption message", "error", err, "retry_in", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, c.maxDelay)
	}
}

func (c *RedemptionConsumer) Close() error {
	return c.reader.Close()
}

// processMessage handles one message and returns only read errors. The offset
// is committed only after the cache was invalidated, so a failed invalidation
// is retried on redelivery. Malformed messages are committed and skipped.
func (c *RedemptionConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	var event publisher.RedemptionEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.WarnContext(ctx, "skipping malformed redemption message", "offset", m.Offset, "error", err)
		c.commit(ctx, m)
		return nil
	}

	if err := c.catalog.Invalidate(ctx); err != nil {
		c.logger.WarnContext(ctx, "catalog invalidation failed", "request_id", event.RequestID, "error", err)
		return nil
	}
	c.logger.DebugContext(ctx, "catalog invalidated after redemption",
		"request_id", event.RequestID, "items", len(event.Items))
	c.commit(ctx, m)
	return nil
}

func (c *RedemptionConsumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.WarnContext(ctx, "failed to commit redemption message", "offset", m.Offset, "error", err)
	}
}
