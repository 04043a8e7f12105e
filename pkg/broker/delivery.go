package broker

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Delivery is one message pulled from the task queue. Every delivery must
// be settled exactly once: Ack removes it from the queue, Nack returns it
// for redelivery. A delivery must not outlive the channel it came from.
type Delivery interface {
	Body() []byte
	Ack() error
	Nack() error
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (a *amqpDelivery) Body() []byte { return a.d.Body }

func (a *amqpDelivery) Ack() error { return a.d.Ack(false) }

// Nack requeues. The broker is the system of record for retries; a nacked
// message comes back as a fresh delivery.
func (a *amqpDelivery) Nack() error { return a.d.Nack(false, true) }
