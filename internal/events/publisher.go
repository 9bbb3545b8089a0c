package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/observability"
)

// Publisher hands identity events to the bus. Publish must return without
// waiting for delivery: the state transition producing the event has already
// committed, and a delivery failure is advisory, never a rollback.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

// StreamPublisher appends events to Redis Streams, one stream per topic.
// A single dispatcher goroutine drains the queue, so events reach the bus
// in the order they were enqueued even when two transitions for the same
// identity follow each other closely.
type StreamPublisher struct {
	client  *redis.Client
	logger  *zap.Logger
	metrics *observability.Metrics

	queue     chan streamEnvelope
	done      chan struct{}
	closeOnce sync.Once
}

type streamEnvelope struct {
	ctx   context.Context
	topic string
	body  []byte
}

// NewStreamPublisher creates the publisher and starts its dispatcher.
func NewStreamPublisher(client *redis.Client, logger *zap.Logger, metrics *observability.Metrics) *StreamPublisher {
	p := &StreamPublisher{
		client:  client,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan streamEnvelope, 256),
		done:    make(chan struct{}),
	}
	go p.dispatch()
	return p
}

// Publish serializes the payload and enqueues it for the dispatcher. The
// caller only pays for the local enqueue; the XADD and its logging happen on
// the dispatcher goroutine with a context detached from the request, so an
// already-answered caller cannot cancel the delivery.
func (p *StreamPublisher) Publish(ctx context.Context, topic string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to encode event", zap.String("topic", topic), zap.Error(err))
		p.metrics.RecordPublishFailure(topic)
		return
	}

	p.queue <- streamEnvelope{
		ctx:   context.WithoutCancel(ctx),
		topic: topic,
		body:  body,
	}
}

func (p *StreamPublisher) dispatch() {
	defer close(p.done)

	for env := range p.queue {
		id, err := p.client.XAdd(env.ctx, &redis.XAddArgs{
			Stream: env.topic,
			Values: map[string]any{"data": env.body},
		}).Result()
		if err != nil {
			p.logger.Error("failed to publish event",
				zap.String("topic", env.topic),
				zap.Error(err))
			p.metrics.RecordPublishFailure(env.topic)
			continue
		}
		p.logger.Info("event published",
			zap.String("topic", env.topic),
			zap.String("message_id", id))
	}
}

// Close drains the queue and stops the dispatcher. Used on shutdown and in
// tests.
func (p *StreamPublisher) Close() {
	p.closeOnce.Do(func() { close(p.queue) })
	<-p.done
}
