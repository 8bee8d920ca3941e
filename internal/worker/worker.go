package worker

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/focusbot/internal/history"
	"github.com/suPer8Hu/focusbot/internal/store/rabbitmq"
	"go.uber.org/zap"
)

// Sink stores a decoded exchange. *history.Service satisfies it.
type Sink interface {
	Record(ctx context.Context, rec history.Record) (string, error)
}

// RetryFunc republishes body for another attempt.
type RetryFunc func(ctx context.Context, body []byte, attempt int) error

type Pool struct {
	sink        Sink
	retry       RetryFunc
	maxRetries  int
	concurrency int
	log         *zap.Logger
}

func NewPool(sink Sink, retry RetryFunc, maxRetries, concurrency int, log *zap.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 2
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{sink: sink, retry: retry, maxRetries: maxRetries, concurrency: concurrency, log: log}
}

// Run dispatches deliveries to the pool until ctx is done or msgs closes,
// then waits for in-flight messages.
func (p *Pool) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	jobs := make(chan amqp.Delivery, p.concurrency*2)

	var wg sync.WaitGroup
	wg.Add(p.concurrency)
	for i := 0; i < p.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				p.Handle(ctx, workerID, d)
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			p.log.Info("worker shutting down")
			return
		case d, ok := <-msgs:
			if !ok {
				p.log.Warn("delivery channel closed")
				return
			}
			jobs <- d
		}
	}
}

// Handle settles exactly one delivery: ack on success or after scheduling a
// retry, nack without requeue (to the DLQ) otherwise. Once ctx is done the
// delivery goes back on the main queue untouched.
func (p *Pool) Handle(ctx context.Context, workerID int, d amqp.Delivery) {
	log := p.log.With(zap.Int("worker", workerID), zap.Uint64("tag", d.DeliveryTag))

	if ctx.Err() != nil {
		requeue(log, d)
		return
	}

	rec, err := rabbitmq.DecodeRecord(d.Body)
	if err != nil {
		log.Warn("bad message", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	id, err := p.sink.Record(ctx, rec)
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Error("ack failed", zap.String("thread", id), zap.Error(err))
		}
		if cost := time.Since(start); cost > 500*time.Millisecond {
			log.Info("slow record", zap.String("thread", id), zap.Duration("cost", cost))
		}
		return
	}

	if ctx.Err() != nil {
		requeue(log.With(zap.Error(err)), d)
		return
	}

	attempt := rabbitmq.Attempts(d.Headers) + 1
	log = log.With(zap.String("user", rec.User), zap.Int("attempt", attempt), zap.Error(err))
	if p.retry == nil || attempt > p.maxRetries {
		log.Error("record failed, dead-lettering")
		_ = d.Nack(false, false)
		return
	}
	if rerr := p.retry(ctx, d.Body, attempt); rerr != nil {
		log.Error("schedule retry failed", zap.NamedError("retry_error", rerr))
		_ = d.Nack(false, false)
		return
	}
	log.Warn("record failed, retry scheduled")
	_ = d.Ack(false)
}

func requeue(log *zap.Logger, d amqp.Delivery) {
	log.Info("shutting down, requeueing")
	if err := d.Nack(false, true); err != nil {
		log.Warn("requeue failed", zap.NamedError("nack_error", err))
	}
}
