package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "nftloan-backend/internal/domain/loan"
)

const (
	defaultQueueSize = 256
	publishTimeout   = 2 * time.Second
)

var ErrPublisherClosed = errors.New("events: publisher closed")

// PublishObserver records publish outcomes. metrics.AuctionMetrics satisfies it.
type PublishObserver interface {
	ObservePublish(event string, ok bool)
}

// Publisher pushes events to a redis pub/sub channel from a single worker
// goroutine so Emit never blocks the caller on the network. Events are
// dropped, and counted as failures, when the queue is full.
type Publisher struct {
	rdb     *redis.Client
	channel string
	obs     PublishObserver
	logger  *zap.Logger

	queue chan domain.Event
	mu    sync.RWMutex
	done  bool
	wg    sync.WaitGroup
}

func NewPublisher(rdb *redis.Client, channel string, queueSize int, obs PublishObserver, logger *zap.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{
		rdb:     rdb,
		channel: channel,
		obs:     obs,
		logger:  logger.Named("publisher"),
		queue:   make(chan domain.Event, queueSize),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Publisher) Emit(ev domain.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.done {
		p.observe(ev, false)
		return
	}
	select {
	case p.queue <- ev:
	default:
		p.logger.Warn("event queue full, dropping", zap.String("event_id", ev.ID), zap.String("event", string(ev.Name)))
		p.observe(ev, false)
	}
}

// Publish sends ev synchronously.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// Close stops accepting events and waits for queued ones to be sent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return ErrPublisherClosed
	}
	p.done = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for ev := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.Publish(ctx, ev)
		cancel()
		if err != nil {
			p.logger.Warn("publish event",
				zap.String("channel", p.channel),
				zap.String("event_id", ev.ID),
				zap.String("event", string(ev.Name)),
				zap.Error(err))
		}
		p.observe(ev, err == nil)
	}
}

func (p *Publisher) observe(ev domain.Event, ok bool) {
	if p.obs != nil {
		p.obs.ObservePublish(string(ev.Name), ok)
	}
}
