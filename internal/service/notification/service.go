package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds publisher configuration
type Config struct {
	WorkerCount int // default: 2
	QueueSize   int // default: 1000
}

type publisher struct {
	hub    *sse.Hub
	logger *slog.Logger
	config Config

	queue   chan notification.Event
	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.RWMutex
	stopped bool
}

// NewPublisher creates an event publisher with background delivery workers
func NewPublisher(hub *sse.Hub, logger *slog.Logger, cfg Config) notification.Publisher {
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &publisher{
		hub:    hub,
		logger: logger.With("component", "notification"),
		config: cfg,
		queue:  make(chan notification.Event, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("publisher started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)

	return p
}

// worker delivers queued events until stopped, then drains what is left
func (p *publisher) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case ev := <-p.queue:
			p.deliver(id, ev)
		case <-p.stopCh:
			for {
				select {
				case ev := <-p.queue:
					p.deliver(id, ev)
				default:
					return
				}
			}
		}
	}
}

func (p *publisher) deliver(worker int, ev notification.Event) {
	p.logger.Info("event",
		"worker", worker,
		"event_id", ev.ID,
		"type", string(ev.Type),
		"employee_id", ev.EmployeeID,
	)
	if _, dropped := p.hub.Broadcast(ev); dropped > 0 {
		p.logger.Warn("slow subscribers missed event", "event_id", ev.ID, "dropped", dropped)
	}
}

// Publish queues an event for async delivery
func (p *publisher) Publish(ctx context.Context, ev notification.Event) error {
	if !isKnownType(ev.Type) {
		return notification.ErrInvalidEventType
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return notification.ErrPublisherStopped
	}

	select {
	case p.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Queue full, deliver inline
		p.deliver(-1, ev)
		return nil
	}
}

// Subscribe attaches to the hub until ctx is done or cleanup is called
func (p *publisher) Subscribe(ctx context.Context, topic string) (<-chan notification.Event, func()) {
	sub, cleanup := p.hub.Subscribe(topic)
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return sub.Events(), cleanup
}

// Stop gracefully stops the publisher
func (p *publisher) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("publisher stopped")
}

func isKnownType(t notification.EventType) bool {
	for _, known := range notification.AllEventTypes() {
		if t == known {
			return true
		}
	}
	return false
}
