package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/types"
)

// Connection and publish retry budget: 5 attempts, exponential from 100 ms.
const (
	connectRetryDelay = 100 * time.Millisecond
	connectAttempts   = 5
)

func retryPolicy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(connectRetryDelay)),
			connectAttempts-1,
		),
		ctx,
	)
}

// Broker owns one AMQP connection and channel bound to the task queue.
// A process keeps a single Broker for its lifetime; channels are not safe
// to share across processes roles, so each binary opens its own.
type Broker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Connect dials the broker with exponential backoff, opens a channel and
// declares the task queue. The declare is idempotent, so server, workers
// and dashboard can all run it at startup in any order.
func Connect(ctx context.Context, amqpURL string) (*Broker, error) {
	logger := log.WithComponent("broker")

	var conn *amqp.Connection
	operation := func() error {
		c, err := amqp.Dial(amqpURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Broker not reachable, retrying")
			return err
		}
		conn = c
		return nil
	}
	if err := backoff.Retry(operation, retryPolicy(ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(types.QueueName, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logger.Info().Str("queue", types.QueueName).Msg("Broker channel created")
	return &Broker{conn: conn, ch: ch}, nil
}

// Publish enqueues one message body on the task queue, retrying transient
// failures with the same budget used for connecting.
func (b *Broker) Publish(ctx context.Context, body []byte) error {
	operation := func() error {
		return b.ch.PublishWithContext(ctx, "", types.QueueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	}
	if err := backoff.Retry(operation, retryPolicy(ctx)); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Consume starts a manual-ack consumer on the task queue. The returned
// channel closes when the AMQP channel closes or ctx is cancelled; a
// delivery stranded in the handoff at cancellation is nacked back.
func (b *Broker) Consume(ctx context.Context, consumerTag string) (<-chan Delivery, error) {
	inbound, err := b.ch.Consume(types.QueueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-inbound:
				if !ok {
					return
				}
				select {
				case out <- &amqpDelivery{d: d}:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

// QueueDepth reports the number of messages waiting in the task queue.
// It uses a passive declare, so the count is broker-authoritative and the
// call fails rather than creating the queue when it is missing.
func (b *Broker) QueueDepth() (int, error) {
	q, err := b.ch.QueueDeclarePassive(types.QueueName, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}
	return q.Messages, nil
}

// Close shuts down the channel and connection.
func (b *Broker) Close() {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}
