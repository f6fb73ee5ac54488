// Package worker implements the per-database, per-BGP-table and
// per-RIPE-authority workers. Every worker owns its data exclusively
// and serializes ingest and lookups through a single goroutine draining
// one Go channel of reified commands, removing all locking inside the
// radix index.
package worker

import (
	"context"
	"net/netip"

	"irrexplorer/pkg/model"
	"irrexplorer/pkg/nrtm"
)

// Result is the uniform response shape every worker kind returns from
// Dispatch. Only the fields relevant to the request's Kind are
// populated; the rest are zero values. Reifying (kind, target) ->
// Result keeps the fan-out layer (pkg/fanout) free of per-worker-type
// switches.
type Result struct {
	// SearchExact / SearchCovered
	Origins map[netip.Prefix]model.OriginSet

	// SearchWorst
	WorstPrefix  netip.Prefix
	WorstOrigins model.OriginSet
	WorstFound   bool

	// InverseASN
	Prefixes []netip.Prefix

	// AssetSearch
	Members []string

	// IsCovered (RIPE-Auth only)
	Covered bool
}

// Queryable is satisfied by every worker kind (DB, BGP, RIPE-Auth). The
// fan-out layer only depends on this.
type Queryable interface {
	Name() string
	Dispatch(ctx context.Context, kind model.QueryKind, target any) (Result, error)
}

// Monitorable is satisfied by every worker kind and backs the /status
// endpoint (SPEC_FULL.md's ambient health surface). Status is served off
// the same command queue as queries and ingests, so the snapshot it
// returns never races with the owning goroutine's writes.
type Monitorable interface {
	Status(ctx context.Context) (model.WorkerStatus, error)
}

// cmdKind distinguishes the variants of the unified command queue.
type cmdKind int

const (
	cmdIngest cmdKind = iota
	cmdQuery
	cmdSwap
	cmdStatus
)

// request is one reified (kind, target) query, carrying its own reply
// channel. The reply channel itself is the correlation token — there
// is no ambiguity about which response belongs to which request
// because each request owns a private, single-use channel.
type request struct {
	kind   model.QueryKind
	target any
	reply  chan queryReply
}

type queryReply struct {
	result Result
	err    error
}

// cmd is the sum type each worker's single goroutine drains.
type cmd struct {
	kind    cmdKind
	ingest  *nrtm.Item
	query   *request
	swapper func()                  // executed on the worker goroutine to apply a snapshot swap
	status  chan model.WorkerStatus // reply channel for a cmdStatus request
}

func dispatchOver(ctx context.Context, cmds chan<- cmd, kind model.QueryKind, target any) (Result, error) {
	reply := make(chan queryReply, 1)
	req := &request{kind: kind, target: target, reply: reply}
	select {
	case cmds <- cmd{kind: cmdQuery, query: req}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.result, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func dispatchStatus(ctx context.Context, cmds chan<- cmd) (model.WorkerStatus, error) {
	reply := make(chan model.WorkerStatus, 1)
	select {
	case cmds <- cmd{kind: cmdStatus, status: reply}:
	case <-ctx.Done():
		return model.WorkerStatus{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return model.WorkerStatus{}, ctx.Err()
	}
}
