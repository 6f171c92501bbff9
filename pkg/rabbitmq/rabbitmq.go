package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	amqp "github.com/streadway/amqp"
)

const (
	confirmationQueue = "confirmation_queue"
	// Parking lot for delayed retries: messages sit here until their
	// per-message TTL expires, then dead-letter back onto the main
	// confirmation queue for redelivery.
	confirmationRetryQueue = "confirmation_retry_queue"
)

// ConfirmationMessage is the payload carried on the confirmation queue.
// Attempt starts at 1 and is incremented on each retry republish.
type ConfirmationMessage struct {
	OrderID string `json:"order_id"`
	Attempt int    `json:"attempt"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel, and declares the
// durable confirmation and retry queues so that pending jobs and
// scheduled retries survive a broker restart.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		confirmationQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", confirmationQueue, err)
	}

	_, err = ch.QueueDeclare(
		confirmationRetryQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": confirmationQueue,
		},
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", confirmationRetryQueue, err)
	}

	log.Printf("RabbitMQ client connected, %s and %s declared", confirmationQueue, confirmationRetryQueue)

	return &Client{conn: conn, channel: ch}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// EnqueueConfirmation publishes a first-attempt confirmation job for an
// order. Implements services.ConfirmationEnqueuer.
func (c *Client) EnqueueConfirmation(orderID string) error {
	return c.PublishConfirmation(ConfirmationMessage{OrderID: orderID, Attempt: 1})
}

// PublishConfirmation publishes a confirmation message as persistent so
// the broker keeps it across restarts.
func (c *Client) PublishConfirmation(msg ConfirmationMessage) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation message: %w", err)
	}

	err = c.channel.Publish(
		"",                // exchange: default exchange
		confirmationQueue, // routing key: the queue name
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish confirmation message: %w", err)
	}

	log.Printf(" [x] Enqueued confirmation for order %s (attempt %d)", msg.OrderID, msg.Attempt)
	return nil
}

// PublishConfirmationRetry parks a confirmation message on the retry
// queue with a per-message TTL. When the TTL expires the broker
// dead-letters it back onto the main queue, so a scheduled retry
// survives worker restarts.
func (c *Client) PublishConfirmationRetry(msg ConfirmationMessage, delay time.Duration) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation message: %w", err)
	}

	err = c.channel.Publish(
		"",                     // exchange: default exchange
		confirmationRetryQueue, // routing key: the retry queue name
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish confirmation retry: %w", err)
	}

	log.Printf(" [x] Scheduled confirmation retry for order %s (attempt %d) in %s", msg.OrderID, msg.Attempt, delay)
	return nil
}

// ConsumeConfirmations consumes confirmation messages with manual acks.
// The handler's error return decides the fate of the delivery: nil acks
// it, an error nacks it with requeue so the job stays in the broker. The
// handler only errors when it could not hand the job back to the retry
// queue, so requeueing cannot loop a poison message forever; genuinely
// unparseable messages are dropped here before the handler runs.
func (c *Client) ConsumeConfirmations(handler func(msg ConfirmationMessage) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := c.channel.QueueDeclare(
		confirmationQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack: off, we acknowledge manually
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for confirmation jobs on %s", queue.Name)

	go func() {
		for delivery := range msgs {
			var msg ConfirmationMessage
			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				log.Printf("Discarding unparseable confirmation message %d: %v", delivery.DeliveryTag, err)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					log.Printf("Error nacking message %d: %v", delivery.DeliveryTag, nackErr)
				}
				continue
			}

			if err := handler(msg); err != nil {
				log.Printf("Error processing confirmation message %d, requeueing: %v", delivery.DeliveryTag, err)
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					log.Printf("Error nacking message %d: %v", delivery.DeliveryTag, nackErr)
				}
			} else {
				if ackErr := delivery.Ack(false); ackErr != nil {
					log.Printf("Error acking message %d: %v", delivery.DeliveryTag, ackErr)
				}
			}
		}
	}()

	return nil
}
