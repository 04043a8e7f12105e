/*
Package broker connects the system to RabbitMQ.

It owns the single queue every task flows through: the API server
publishes task messages onto it, workers consume them with manual
acknowledgement, and the dashboard asks it for the backlog count. One
Broker per process, one durable queue, no exchanges or routing topology.

# Architecture

	 API server                              worker (xN)
	 Publish(body)                           Consume(ctx, tag)
	      │                                        ▲
	      ▼                                        │ Delivery
	┌─────────────────── RabbitMQ ─────────────────┴───┐
	│                                                   │
	│   task_queue (durable, persistent messages)       │
	│   unacked messages return on nack / disconnect    │
	│                                                   │
	└─────────────────────────▲─────────────────────────┘
	                          │ QueueDeclarePassive
	                     dashboard depth probe

# Connection Management

Connect dials with exponential backoff from 100 ms, five attempts, then
opens a channel and declares the queue. The declare is idempotent, so
server, workers and dashboard can start in any order; whoever comes up
first creates the queue. Publish retries transient failures on the same
budget.

# Delivery Semantics

Messages are published persistent onto a durable queue and consumed with
manual acknowledgement, giving at-least-once delivery:

  - Ack removes the message permanently
  - Nack requeues it for redelivery
  - A consumer dying with unacked messages requeues them automatically

Every Delivery must be settled exactly once. The Delivery interface
wraps the AMQP delivery so worker tests can settle fakes instead of live
channels.

Consume bridges AMQP deliveries onto a plain channel that closes when
the context is cancelled or the AMQP channel dies. A delivery caught
mid-handoff at cancellation is nacked back instead of being dropped
unsettled.

# Usage

	br, err := broker.Connect(ctx, cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer br.Close()

	// producer side
	err = br.Publish(ctx, body)

	// consumer side
	deliveries, err := br.Consume(ctx, workerID)
	for d := range deliveries {
		// ... decide, then exactly one of:
		_ = d.Ack()
		_ = d.Nack()
	}

# Depth Probe

QueueDepth runs a passive declare and returns the broker's own message
count. Passive means the call fails when the queue is missing rather
than creating it, so a misconfigured environment surfaces as an error
instead of an empty queue.

# Integration Points

  - pkg/api: publishes accepted submissions, probes depth for /healthz
  - pkg/worker: consumes deliveries and settles them after execution
  - pkg/dashboard: shows the probe result in each snapshot
  - pkg/types: queue name constant and the message wire format

# See Also

  - pkg/worker for the full settlement matrix on the consumer side
  - pkg/types.DecodeTaskMessage for how bodies are parsed tolerantly
*/
package broker
