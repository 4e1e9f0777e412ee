package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sink receives relayed outbox entries. An entry is sent once every sink
// accepted it; a sink must tolerate seeing an entry again after a partial
// failure.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, entry *shared.OutboxEntry) error
}

// RelayObserver hears about every delivery attempt
type RelayObserver interface {
	OutboxRelayed(eventType string, err error)
}

// RelayConfig sets the polling and the purge of sent entries. A zero
// PurgeInterval keeps sent entries forever.
type RelayConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	PurgeAfter    time.Duration
	PurgeInterval time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:     100,
		PollInterval:  5 * time.Second,
		PurgeAfter:    7 * 24 * time.Hour,
		PurgeInterval: time.Hour,
	}
}

// Relay moves due outbox entries to the sinks
type Relay struct {
	repo     shared.OutboxRepository
	sinks    []Sink
	config   RelayConfig
	logger   *zap.Logger
	observer RelayObserver
	now      func() time.Time

	stop context.CancelFunc
	done chan error
}

func NewRelay(repo shared.OutboxRepository, sinks []Sink, config RelayConfig, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultRelayConfig().BatchSize
	}
	return &Relay{
		repo:   repo,
		sinks:  sinks,
		config: config,
		logger: logger.Named("outbox"),
		now:    time.Now,
	}
}

func (r *Relay) SetObserver(observer RelayObserver) { r.observer = observer }

// Start polls in the background until Stop or ctx ends
func (r *Relay) Start(ctx context.Context) error {
	if r.config.PollInterval <= 0 {
		return errors.New("outbox: poll interval must be positive")
	}
	ctx, r.stop = context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		every(ctx, r.config.PollInterval, func() {
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("Outbox relay failed", zap.Error(err))
			}
		})
		return nil
	})
	if r.config.PurgeInterval > 0 {
		g.Go(func() error {
			every(ctx, r.config.PurgeInterval, func() { r.purge(ctx) })
			return nil
		})
	}
	r.done = make(chan error, 1)
	go func() { r.done <- g.Wait() }()

	r.logger.Info("Outbox relay started",
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("poll_interval", r.config.PollInterval),
		zap.Strings("sinks", lo.Map(r.sinks, func(s Sink, _ int) string { return s.Name() })),
	)
	return nil
}

// Stop waits for the loops to return, at most until ctx ends
func (r *Relay) Stop(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	r.stop()
	select {
	case err := <-r.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// every runs fn at each tick until ctx ends
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// RelayOnce delivers one batch and returns how many entries were sent.
// Entries another instance claimed first are skipped.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	due, err := r.repo.FindDue(ctx, r.now(), r.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("find due entries: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}
	claimed, err := r.repo.Claim(ctx, lo.Map(due, func(e *shared.OutboxEntry, _ int) uuid.UUID { return e.ID }))
	if err != nil {
		return 0, fmt.Errorf("claim entries: %w", err)
	}
	return lo.CountBy(claimed, func(e *shared.OutboxEntry) bool { return r.relay(ctx, e) }), nil
}

func (r *Relay) relay(ctx context.Context, entry *shared.OutboxEntry) bool {
	err := r.deliver(ctx, entry)
	if r.observer != nil {
		r.observer.OutboxRelayed(entry.EventType, err)
	}
	log := r.logger.With(zap.String("event_id", entry.EventID.String()), zap.String("event_type", entry.EventType))

	if err == nil {
		entry.MarkSent(r.now())
	} else {
		entry.MarkFailed(err.Error(), r.now())
		if entry.IsDead() {
			log.Warn("Event moved to dead letters",
				zap.String("aggregate", entry.AggregateType+"/"+entry.AggregateID.String()),
				zap.Int("attempts", entry.RetryCount),
				zap.Error(err),
			)
		} else {
			log.Error("Event relay failed", zap.Int("attempts", entry.RetryCount), zap.Error(err))
		}
	}
	if saveErr := r.repo.Update(ctx, entry); saveErr != nil {
		log.Error("Outbox entry not saved", zap.Error(saveErr))
	}
	return err == nil
}

func (r *Relay) deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	for _, sink := range r.sinks {
		if err := sink.Deliver(ctx, entry); err != nil {
			return fmt.Errorf("%s: %w", sink.Name(), err)
		}
	}
	return nil
}

// purge deletes entries sent more than PurgeAfter ago
func (r *Relay) purge(ctx context.Context) {
	cutoff := r.now().Add(-r.config.PurgeAfter)
	n, err := r.repo.DeleteSentBefore(ctx, cutoff)
	switch {
	case err != nil:
		r.logger.Error("Outbox purge failed", zap.Error(err))
	case n > 0:
		r.logger.Info("Sent outbox entries purged", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
}

// BusSink replays entries on the in-process event bus
type BusSink struct {
	bus        shared.EventPublisher
	serializer *EventSerializer
}

func NewBusSink(bus shared.EventPublisher, serializer *EventSerializer) *BusSink {
	return &BusSink{bus: bus, serializer: serializer}
}

func (s *BusSink) Name() string { return "bus" }

func (s *BusSink) Deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	event, err := s.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, event)
}
