// Package fanout implements the multi-source query dispatch: IRRQuery
// sends a prefix or ASN query to every configured IRR database worker
// concurrently, OtherQuery sends one to the BGP and/or RIPE-Auth
// worker, and in both cases the caller waits for every dispatched
// worker (or for ctx to expire). Fan-out concurrency and cancellation
// use golang.org/x/sync/errgroup.
package fanout

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"irrexplorer/pkg/model"
	"irrexplorer/pkg/worker"
)

// SourceResult pairs one worker's Result with the worker name it came
// from, or the error it returned, so the caller (pkg/report) can tell
// sources apart without re-deriving identity from the response shape.
type SourceResult struct {
	Source string
	Result worker.Result
	Err    error
}

// IRRQuery dispatches the same (kind, target) query to every IRR
// database worker concurrently and collects every response, including
// failures. It has no error return of its own: a single worker failing,
// or ctx being canceled before a worker replies, is reported in that
// worker's SourceResult.Err and does not fail the others.
//
// Every call is tagged with a correlation ID (a fresh UUID) for log
// grouping across the fanned-out goroutines — useful when diagnosing a
// single slow or misbehaving worker in amongst many.
func IRRQuery(ctx context.Context, workers []*worker.DBWorker, kind model.QueryKind, target any, log zerolog.Logger) []SourceResult {
	corrID := uuid.New().String()
	log = log.With().Str("fanout_id", corrID).Logger()

	results := make([]SourceResult, len(workers))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			res, err := w.Dispatch(gctx, kind, target)
			results[i] = SourceResult{Source: w.Name(), Result: res, Err: err}
			if err != nil {
				log.Warn().Err(err).Str("db", w.Name()).Msg("worker query failed")
			}
			return nil
		})
	}
	// errgroup.Wait only returns non-nil if a Go func returns an error or
	// ctx is canceled before all goroutines finish; per-worker failures
	// are captured in results instead of aborting the fan-out.
	_ = g.Wait()
	return results
}

// OtherQuery dispatches one query each to the BGP worker and the
// RIPE-Auth worker concurrently, mirroring IRRQuery's shape for the two
// non-IRR sources folded into the same report.
func OtherQuery(ctx context.Context, bgp worker.Queryable, ripe worker.Queryable, kind model.QueryKind, target any, log zerolog.Logger) (bgpResult SourceResult, ripeResult SourceResult) {
	corrID := uuid.New().String()
	log = log.With().Str("fanout_id", corrID).Logger()

	g, gctx := errgroup.WithContext(ctx)
	if bgp != nil {
		g.Go(func() error {
			res, err := bgp.Dispatch(gctx, kind, target)
			bgpResult = SourceResult{Source: bgp.Name(), Result: res, Err: err}
			if err != nil {
				log.Warn().Err(err).Str("worker", bgp.Name()).Msg("bgp query failed")
			}
			return nil
		})
	}
	if ripe != nil {
		g.Go(func() error {
			res, err := ripe.Dispatch(gctx, kind, target)
			ripeResult = SourceResult{Source: ripe.Name(), Result: res, Err: err}
			if err != nil {
				log.Warn().Err(err).Str("worker", ripe.Name()).Msg("ripe-auth query failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return bgpResult, ripeResult
}
