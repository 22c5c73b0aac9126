package event

import (
	"time"

	"go-chms/internal/config"

	"go.uber.org/zap"
)

// Bus is the in-process feed between the ingest endpoint and the scheduler's
// event consumer. Publishing never blocks the HTTP handler; if the consumer
// falls behind past the buffer, events are dropped and logged.
type Bus struct {
	ch     chan DomainEvent
	logger *zap.Logger
}

func NewBus(cfg *config.Config, logger *zap.Logger) *Bus {
	return &Bus{
		ch:     make(chan DomainEvent, cfg.EventBufferSize),
		logger: logger,
	}
}

func (b *Bus) Publish(ev DomainEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	select {
	case b.ch <- ev:
	default:
		b.logger.Warn("event buffer full, dropping event",
			zap.String("type", string(ev.Type)),
			zap.String("member", ev.SubjectMemberID),
		)
	}
}

func (b *Bus) Events() <-chan DomainEvent {
	return b.ch
}
