package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookingserrors "renthub/internal/bookings/errors"
	"renthub/pkg/clock"
	apperrors "renthub/pkg/errors"
)

func newTestGenerator(repo *mockSequenceRepository) *SequenceGenerator {
	g := NewSequenceGenerator(repo, clock.Fixed(testNow), newTestConfig())
	g.sleep = func(time.Duration) {}
	return g
}

func TestNextFormatsReference(t *testing.T) {
	repo := &mockSequenceRepository{
		incrementFunc: func(ctx context.Context, counterID string) (int64, error) {
			return 42, nil
		},
	}
	g := newTestGenerator(repo)

	got, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != "RH260314-042" {
		t.Errorf("Next() = %q, want RH260314-042", got)
	}
}

func TestNextCounterPastThreeDigits(t *testing.T) {
	repo := &mockSequenceRepository{
		incrementFunc: func(ctx context.Context, counterID string) (int64, error) {
			return 1204, nil
		},
	}
	g := newTestGenerator(repo)

	got, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	// The counter never resets; past 999 the suffix just grows.
	if got != "RH260314-1204" {
		t.Errorf("Next() = %q, want RH260314-1204", got)
	}
}

func TestNextDatePrefixUsesIST(t *testing.T) {
	repo := &mockSequenceRepository{
		incrementFunc: func(ctx context.Context, counterID string) (int64, error) {
			return 7, nil
		},
	}
	// 21:00 UTC on Mar 14 is 02:30 IST on Mar 15.
	g := NewSequenceGenerator(repo, clock.Fixed(time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)), newTestConfig())
	g.sleep = func(time.Duration) {}

	got, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != "RH260315-007" {
		t.Errorf("Next() = %q, want RH260315-007", got)
	}
}

func TestNextFallsBackToCompareAndSet(t *testing.T) {
	var casCalls int
	repo := &mockSequenceRepository{
		incrementFunc: func(ctx context.Context, counterID string) (int64, error) {
			return 0, errors.New("findAndModify unavailable")
		},
		getFunc: func(ctx context.Context, counterID string) (int64, error) {
			return 10, nil
		},
		casFunc: func(ctx context.Context, counterID string, expected, next int64) error {
			casCalls++
			if expected != 10 || next != 11 {
				t.Errorf("CompareAndSet(%d, %d), want (10, 11)", expected, next)
			}
			return nil
		},
	}
	g := newTestGenerator(repo)

	got, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != "RH260314-011" {
		t.Errorf("Next() = %q, want RH260314-011", got)
	}
	if casCalls != 1 {
		t.Errorf("CompareAndSet called %d times, want 1", casCalls)
	}
}

func TestNextRetriesCASConflicts(t *testing.T) {
	current := int64(5)
	var attempts int
	repo := &mockSequenceRepository{
		incrementFunc: func(ctx context.Context, counterID string) (int64, error) {
			return 0, errors.New("findAndModify unavailable")
		},
		getFunc: func(ctx context.Context, counterID string) (int64, error) {
			return current, nil
		},
		casFunc: func(ctx context.Context, counterID string, expected, next int64) error {
			attempts++
			if attempts < 3 {
				// Another writer advanced the counter first.
				current++
				return bookingserrors.ErrSequenceConflict
			}
			return nil
		},
	}
	g := newTestGenerator(repo)

	got, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != "RH260314-008" {
		t.Errorf("Next() = %q, want RH260314-008", got)
	}
}

func TestNextExhaustionAfterMaxAttempts(t *testing.T) {
	var increments, casAttempts int
	var backoffs []time.Duration
	repo := &mockSequenceRepository{
		incrementFunc: func(ctx context.Context, counterID string) (int64, error) {
			increments++
			return 0, errors.New("primary stepped down")
		},
		getFunc: func(ctx context.Context, counterID string) (int64, error) {
			return 5, nil
		},
		casFunc: func(ctx context.Context, counterID string, expected, next int64) error {
			casAttempts++
			return bookingserrors.ErrSequenceConflict
		},
	}
	g := newTestGenerator(repo)
	g.sleep = func(d time.Duration) { backoffs = append(backoffs, d) }

	_, err := g.Next(context.Background())

	if !apperrors.HasCode(err, apperrors.CodeSequenceExhausted) {
		t.Fatalf("expected SEQUENCE_EXHAUSTED, got %v", err)
	}
	if increments != 5 {
		t.Errorf("IncrementAndGet attempts = %d, want 5", increments)
	}
	if casAttempts != 5 {
		t.Errorf("CompareAndSet attempts = %d, want 5", casAttempts)
	}

	// Backoff doubles from the base and caps.
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond}
	if len(backoffs) != len(want) {
		t.Fatalf("backoffs = %v, want %v", backoffs, want)
	}
	for i := range want {
		if backoffs[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, backoffs[i], want[i])
		}
	}
}

func TestNextConcurrentCallersGetUniqueReferences(t *testing.T) {
	var mu sync.Mutex
	var counter int64
	repo := &mockSequenceRepository{
		incrementFunc: func(ctx context.Context, counterID string) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			counter++
			return counter, nil
		},
	}
	g := newTestGenerator(repo)

	const callers = 50
	results := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := g.Next(context.Background())
			if err != nil {
				t.Errorf("Next() error = %v", err)
				return
			}
			results <- ref
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for ref := range results {
		if seen[ref] {
			t.Errorf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
	if len(seen) != callers {
		t.Errorf("got %d unique references, want %d", len(seen), callers)
	}
}
