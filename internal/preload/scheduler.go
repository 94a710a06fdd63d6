package preload

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/Ruutuli/whohas/internal/cache"
)

// ErrNoKeys is returned by commands that end up with nothing to
// preload: no arguments, no file and an empty watchlist.
var ErrNoKeys = errors.New("no keys to preload")

// Scheduler pacing defaults, applied by the config layer.
const (
	DefaultBatchSize  = 3
	DefaultItemDelay  = 250 * time.Millisecond
	DefaultBatchDelay = 1500 * time.Millisecond
	DefaultRetries    = 1
)

// Fetcher fetches the holders for one key. *api.Client satisfies it.
type Fetcher interface {
	ItemHolders(ctx context.Context, key string) ([]cache.Holding, error)
}

// Summary is the outcome of one preload run. Attempted counts keys
// whose first fetch attempt started; keys fresh in the store are
// Skipped and keys after a breaker trip are never attempted at all.
type Summary struct {
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Skipped   int  `json:"skipped"`
	Refused   bool `json:"refused,omitempty"`
	Tripped   bool `json:"tripped,omitempty"`
}

// Scheduler warms the store from a list of candidate keys, slowly: one
// worker goroutine consumes keys from a bounded queue, a rate limiter
// spaces every fetch attempt by ItemDelay, and each full batch of
// BatchSize keys is followed by a BatchDelay pause. Fetches are
// strictly sequential and strictly in candidate order.
type Scheduler struct {
	Store   *cache.Store
	Fetch   Fetcher
	Breaker *Breaker

	// BatchSize below 1 falls back to DefaultBatchSize. Zero delays
	// mean no pacing; Retries below 0 means single-attempt keys.
	BatchSize  int
	ItemDelay  time.Duration
	BatchDelay time.Duration
	Retries    int

	// Progress, when set, is called after each candidate settles.
	Progress func(done, total int, key string)

	// Logger may be nil; fetch failures are logged at debug level.
	Logger *log.Logger
}

// Run preloads keys. A disabled breaker refuses the whole run: the
// summary has Refused set and the error is nil, a refusal is not a
// failure. Individual fetch errors never escape either; they are
// tallied in the summary. The returned error reports only context
// cancellation.
func (s *Scheduler) Run(ctx context.Context, keys []string) (Summary, error) {
	var sum Summary

	breaker := s.Breaker
	if breaker == nil {
		breaker = NewBreaker(0)
	}
	if !breaker.Allowed() {
		sum.Refused = true
		return sum, nil
	}
	breaker.BeginRun()

	// Keys already fresh in the store are not worth a fetch.
	candidates := make([]string, 0, len(keys))
	for _, key := range keys {
		if s.Store.Has(key) {
			sum.Skipped++
			continue
		}
		candidates = append(candidates, key)
	}
	if len(candidates) == 0 {
		return sum, ctx.Err()
	}

	batchSize := s.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	queue := make(chan string, batchSize)
	done := make(chan struct{})

	go func() {
		defer close(queue)
		for _, key := range candidates {
			select {
			case queue <- key:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)

		limiter := rate.NewLimiter(rate.Every(s.ItemDelay), 1)
		processed := 0

		for key := range queue {
			sum.Attempted++
			ok, tripped := s.fetchKey(ctx, breaker, limiter, key)
			processed++

			if ok {
				sum.Succeeded++
			} else if ctx.Err() != nil {
				// Canceled mid-key; not a service failure.
				return
			} else {
				sum.Failed++
			}

			if s.Progress != nil {
				s.Progress(processed, len(candidates), key)
			}

			if tripped {
				// Breaker opened: abandon the run, pending keys are
				// never attempted.
				sum.Tripped = true
				return
			}

			if processed%batchSize == 0 && processed < len(candidates) {
				select {
				case <-time.After(s.BatchDelay):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	wg.Wait()
	return sum, ctx.Err()
}

// fetchKey tries one key up to 1+Retries times. Every attempt passes
// the limiter first, so retries are paced like everything else, and
// every failed attempt counts against the breaker. Reports whether the
// key succeeded and whether a failure tripped the breaker.
func (s *Scheduler) fetchKey(ctx context.Context, breaker *Breaker, limiter *rate.Limiter, key string) (ok, tripped bool) {
	attempts := 1 + s.Retries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return false, false
		}

		holders, err := s.Fetch.ItemHolders(ctx, key)
		if err == nil {
			s.Store.Set(key, holders)
			breaker.RecordSuccess()
			return true, false
		}
		if ctx.Err() != nil {
			return false, false
		}

		s.logger().Debug("preload fetch failed",
			"key", key,
			"attempt", attempt,
			"of", attempts,
			"err", err)

		if breaker.RecordFailure() {
			return false, true
		}
	}
	return false, false
}

func (s *Scheduler) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(io.Discard)
}
