// Package scheduler runs probes with bounded parallelism. Every submitted
// spec produces exactly one result, whatever the probe does.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/jaxxstorm/netdiag/internal/probe"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const DefaultWorkers = 5

type Config struct {
	Workers int
	Logger  *zap.Logger
}

// Completion is a finished probe and the position of its spec in the
// submitted slice.
type Completion struct {
	Index  int
	Result model.ProbeResult
}

type Scheduler struct {
	prober probe.Prober
	config Config

	// overrun counts probe goroutines still running after their deadline
	// was reported. Their worker slot has already been released.
	overrun atomic.Int64
}

func New(prober probe.Prober, cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Scheduler{prober: prober, config: cfg}
}

// Stream starts every spec and delivers completions as they finish. The
// channel yields exactly len(specs) values and is then closed. It is
// buffered, so abandoning it does not leak goroutines.
func (s *Scheduler) Stream(ctx context.Context, specs []model.ProbeSpec) <-chan Completion {
	out := make(chan Completion, len(specs))
	sem := semaphore.NewWeighted(int64(s.config.Workers))

	go func() {
		defer close(out)
		wg := sync.WaitGroup{}
		for i, spec := range specs {
			if err := ctx.Err(); err != nil {
				out <- Completion{Index: i, Result: abandoned(spec, err)}
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				out <- Completion{Index: i, Result: abandoned(spec, err)}
				continue
			}
			wg.Add(1)
			go func(idx int, spec model.ProbeSpec) {
				defer wg.Done()
				defer sem.Release(1)
				result := s.runOne(ctx, spec)
				s.config.Logger.Debug("probe finished",
					zap.Int("index", idx),
					zap.String("kind", string(spec.Kind)),
					zap.String("target", spec.Address()),
					zap.String("status", string(result.Outcome.Status())),
					zap.Duration("elapsed", result.Elapsed),
				)
				out <- Completion{Index: idx, Result: result}
			}(i, spec)
		}
		wg.Wait()
		if n := s.overrun.Load(); n > 0 {
			s.config.Logger.Warn("probes still running past their deadline",
				zap.Int64("count", n),
				zap.Int("workers", s.config.Workers),
			)
		}
	}()

	return out
}

// Run waits for every spec and returns results in submission order.
func (s *Scheduler) Run(ctx context.Context, specs []model.ProbeSpec) []model.ProbeResult {
	results := make([]model.ProbeResult, len(specs))
	for c := range s.Stream(ctx, specs) {
		results[c.Index] = c.Result
	}
	return results
}

// Overrun is the number of probes that outlived their deadline and are
// still running.
func (s *Scheduler) Overrun() int {
	return int(s.overrun.Load())
}

func (s *Scheduler) runOne(ctx context.Context, spec model.ProbeSpec) model.ProbeResult {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = probe.DefaultTimeout(spec.Kind)
	}
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	const (
		stateRunning int32 = iota
		stateFinished
		stateAbandoned
	)
	var state atomic.Int32

	done := make(chan model.Outcome, 1)
	go func() {
		defer func() {
			if !state.CompareAndSwap(stateRunning, stateFinished) {
				s.overrun.Add(-1)
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				s.config.Logger.Error("probe panicked", zap.String("target", spec.Address()), zap.Any("panic", r))
				done <- model.Errorf("probe panicked: %v", r)
			}
		}()
		done <- s.prober.Probe(probeCtx, spec)
	}()

	var outcome model.Outcome
	select {
	case outcome = <-done:
	case <-probeCtx.Done():
		s.overrun.Add(1)
		if !state.CompareAndSwap(stateRunning, stateAbandoned) {
			// Finished while the deadline fired.
			s.overrun.Add(-1)
			outcome = <-done
			break
		}
		// The probe ignored its deadline; it will exit into the buffered
		// channel on its own.
		s.config.Logger.Warn("probe ignored its deadline", zap.String("target", spec.Address()), zap.Duration("timeout", timeout))
		if parentErr := ctx.Err(); parentErr != nil {
			outcome = abandonedOutcome(parentErr)
		} else {
			outcome = model.Timeout{After: timeout}
		}
	}
	if outcome == nil {
		outcome = model.Error{Message: "probe returned no outcome"}
	}
	return model.ProbeResult{Spec: spec, Outcome: outcome, Elapsed: time.Since(start)}
}

func abandoned(spec model.ProbeSpec, err error) model.ProbeResult {
	return model.ProbeResult{Spec: spec, Outcome: abandonedOutcome(err)}
}

func abandonedOutcome(err error) model.Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.Error{Message: "abandoned: run deadline exceeded"}
	}
	return model.Error{Message: fmt.Sprintf("abandoned: %v", err)}
}
