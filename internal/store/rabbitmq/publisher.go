package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/focusbot/internal/history"
)

// Publisher hands finished chat exchanges to the history worker.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareQueues(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// DeclareQueues sets up queue, queue.retry and queue.dlq. The worker and the
// publisher must agree on these arguments or the broker rejects the declare.
func DeclareQueues(ch *amqp.Channel, queue string) error {
	// order matters: a dead-letter target is declared before its source
	topology := []struct {
		name       string
		deadLetter string
	}{
		{name: DeadLetterQueue(queue)},
		{name: RetryQueue(queue), deadLetter: queue},      // TTL expiry goes back to main
		{name: queue, deadLetter: DeadLetterQueue(queue)}, // nack(requeue=false) goes to DLQ
	}
	for _, q := range topology {
		var args amqp.Table
		if q.deadLetter != "" {
			args = amqp.Table{
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": q.deadLetter,
			}
		}
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, args); err != nil {
			return fmt.Errorf("declare %s: %w", q.name, err)
		}
	}
	return nil
}

func RetryQueue(queue string) string      { return queue + ".retry" }
func DeadLetterQueue(queue string) string { return queue + ".dlq" }

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Record implements relay.Recorder by publishing the exchange.
func (p *Publisher) Record(ctx context.Context, rec history.Record) error {
	body, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    rec.At,
		},
	)
}

// RetryCountHeader carries the number of redeliveries through the retry queue.
const RetryCountHeader = "x-focusbot-retries"

// Retry republishes body to the retry queue with a per-message TTL; the broker
// dead-letters it back to the main queue when the TTL expires.
func Retry(ctx context.Context, ch *amqp.Channel, queue string, body []byte, attempt int, delay time.Duration) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ch.PublishWithContext(cctx, "", RetryQueue(queue), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Expiration:   strconvMillis(delay),
		Headers:      amqp.Table{RetryCountHeader: int32(attempt)},
		Timestamp:    time.Now(),
	})
}

// Attempts reads RetryCountHeader; absent or malformed means zero.
func Attempts(h amqp.Table) int {
	switch v := h[RetryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
