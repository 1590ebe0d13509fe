package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "renthub/internal/bookings/errors"
	"renthub/internal/bookings/repository"
	"renthub/pkg/clock"
	"renthub/pkg/config"
	apperrors "renthub/pkg/errors"
	"renthub/pkg/model"
)

// SequenceGenerator issues human-readable booking references of the form
// RH{YYMMDD}-{NNN}. The date part reflects the creation day in IST; the
// numeric part comes from a single global counter that never resets, so
// references stay unique across days even though the date prefix changes.
type SequenceGenerator struct {
	repo  repository.SequenceRepository
	clk   clock.Clock
	cfg   *config.Config
	sleep func(time.Duration)
}

func NewSequenceGenerator(repo repository.SequenceRepository, clk clock.Clock, cfg *config.Config) *SequenceGenerator {
	return &SequenceGenerator{
		repo:  repo,
		clk:   clk,
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

// Next allocates the next booking reference. The atomic increment is the
// primary path; when it fails (stepped-down primary, transient network error)
// the generator falls back to an optimistic read-compare-swap before backing
// off and retrying. After the configured attempts it gives up with
// SequenceExhausted rather than risking a duplicate reference.
func (g *SequenceGenerator) Next(ctx context.Context) (string, error) {
	backoff := g.cfg.SequenceBackoffBase
	var lastErr error

	for attempt := 1; attempt <= g.cfg.SequenceMaxAttempts; attempt++ {
		value, err := g.repo.IncrementAndGet(ctx, model.SequenceCounterID)
		if err == nil {
			return g.format(value), nil
		}
		lastErr = err

		value, casErr := g.tryCompareAndSet(ctx)
		if casErr == nil {
			return g.format(value), nil
		}
		if !errors.Is(casErr, bookingserrors.ErrSequenceConflict) {
			lastErr = casErr
		}

		g.cfg.Log.Warn("Sequence allocation attempt failed",
			"attempt", attempt,
			"max_attempts", g.cfg.SequenceMaxAttempts,
			"backoff", backoff,
			"error", err,
		)

		if attempt < g.cfg.SequenceMaxAttempts {
			select {
			case <-ctx.Done():
				return "", apperrors.SequenceExhausted(ctx.Err())
			default:
			}
			g.sleep(backoff)
			backoff *= 2
			if backoff > g.cfg.SequenceBackoffCap {
				backoff = g.cfg.SequenceBackoffCap
			}
		}
	}

	return "", apperrors.SequenceExhausted(lastErr)
}

func (g *SequenceGenerator) tryCompareAndSet(ctx context.Context) (int64, error) {
	current, err := g.repo.Get(ctx, model.SequenceCounterID)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := g.repo.CompareAndSet(ctx, model.SequenceCounterID, current, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (g *SequenceGenerator) format(value int64) string {
	date := g.clk.Now().In(clock.IST).Format("060102")
	return fmt.Sprintf("RH%s-%03d", date, value)
}
