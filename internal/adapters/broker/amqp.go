package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/betsync/internal/adapters/sportsbook"
	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/streadway/amqp"
)

const defaultPrefetch = 20

// SlipHandler settles one slip. It must be safe to call again with the same slip.
type SlipHandler interface {
	ReconcileSlip(ctx context.Context, slip domain.Slip) (domain.SyncStats, error)
}

// Consumer reads settlement records pushed by the sportsbook to a queue and
// hands them to the reconciler. Deliveries are acked manually: bad records and
// slips without usable ids are dropped, failed settlements are requeued.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	handler  SlipHandler
}

// NewConsumer builds a Consumer for the durable queue on the broker at url.
func NewConsumer(url, queue string, prefetch int, handler SlipHandler) *Consumer {
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}
	return &Consumer{
		url:      url,
		queue:    queue,
		prefetch: prefetch,
		handler:  handler,
	}
}

type disposition int

const (
	ack disposition = iota
	drop
	requeue
)

// Run consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("broker.Run: dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("broker.Run: channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("broker.Run: qos: %w", err)
	}
	if _, err := ch.QueueDeclare(
		c.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("broker.Run: declare %s: %w", c.queue, err)
	}

	deliveries, err := ch.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("broker.Run: consume: %w", err)
	}

	slog.Info("consuming settlement slips", "queue", c.queue, "prefetch", c.prefetch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("broker.Run: delivery channel closed")
			}
			var ackErr error
			switch c.process(ctx, d.Body) {
			case ack:
				ackErr = d.Ack(false)
			case drop:
				ackErr = d.Nack(false, false)
			case requeue:
				ackErr = d.Nack(false, true)
			}
			if ackErr != nil {
				return fmt.Errorf("broker.Run: ack: %w", ackErr)
			}
		}
	}
}

// process decodes and settles one message body.
func (c *Consumer) process(ctx context.Context, body []byte) disposition {
	slip, err := sportsbook.DecodeRecord(body)
	if err != nil {
		slog.Warn("dropping invalid slip message", "err", err)
		return drop
	}

	stats, err := c.handler.ReconcileSlip(ctx, slip)
	if errors.Is(err, domain.ErrInvalidSlip) {
		slog.Warn("dropping unkeyable slip", "err", err)
		return drop
	}
	if err != nil {
		slog.Warn("slip settlement failed, requeueing", "slip", slip.ID, "err", err)
		return requeue
	}
	slog.Debug("slip settled from queue",
		"slip", slip.ID,
		"written", stats.Written,
		"skipped", stats.Skipped,
	)
	return ack
}
