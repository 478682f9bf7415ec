package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// codePayload is the message published for each issued confirmation code. A
// downstream mailer consumes the queue and sends the actual email.
type codePayload struct {
	Email            string `json:"email"`
	ConfirmationCode int    `json:"confirmation_code"`
}

// RabbitMQSink publishes confirmation codes to a durable queue.
type RabbitMQSink struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// NewRabbitMQSink connects to the broker and declares the queue. Declaring is
// idempotent, so several instances can share one queue.
func NewRabbitMQSink(url, queueName string) (*RabbitMQSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening RabbitMQ channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring queue %q: %w", queueName, err)
	}

	log.Printf("[INFO] notify: connected to RabbitMQ, queue %q declared", q.Name)
	return &RabbitMQSink{conn: conn, channel: ch, queue: q}, nil
}

func (s *RabbitMQSink) Send(ctx context.Context, email string, code int) error {
	body, err := json.Marshal(codePayload{Email: email, ConfirmationCode: code})
	if err != nil {
		return fmt.Errorf("marshalling code payload: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = s.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		s.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing confirmation code: %w", err)
	}
	return nil
}

func (s *RabbitMQSink) Close() error {
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			log.Printf("[WARN] notify: closing RabbitMQ channel: %v", err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			return fmt.Errorf("closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}
