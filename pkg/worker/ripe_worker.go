package worker

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/rs/zerolog"

	"irrexplorer/pkg/model"
	"irrexplorer/pkg/radix"
	"irrexplorer/pkg/ripesnapshot"
)

// RipeWorker answers one question: is a prefix contained in a range RIPE is
// authoritative for? It holds a radix tree of coverage ranges with no
// payload of interest beyond presence, refreshed periodically from a
// ripesnapshot.Source and swapped in atomically like the BGP worker.
type RipeWorker struct {
	name     string
	interval time.Duration
	source   ripesnapshot.Source

	cmds  chan cmd
	ready chan struct{}

	log zerolog.Logger

	tree     *radix.Tree[struct{}]
	lastSync time.Time
	lastErr  error
}

// NewRipeWorker constructs a RIPE-Auth worker.
func NewRipeWorker(name string, interval time.Duration, source ripesnapshot.Source, log zerolog.Logger) *RipeWorker {
	return &RipeWorker{
		name:     name,
		interval: interval,
		source:   source,
		cmds:     make(chan cmd, 64),
		ready:    make(chan struct{}),
		log:      log.With().Str("worker", name).Logger(),
		tree:     radix.New[struct{}](),
	}
}

// Name implements Queryable.
func (w *RipeWorker) Name() string { return w.name }

// Ready implements the standard worker readiness contract.
func (w *RipeWorker) Ready() <-chan struct{} { return w.ready }

// Start launches the periodic refresher and the owning run loop.
func (w *RipeWorker) Start(ctx context.Context) {
	go w.refreshLoop(ctx)
	go w.run(ctx)
}

func (w *RipeWorker) refreshLoop(ctx context.Context) {
	if err := w.refreshOnce(ctx); err != nil {
		w.log.Warn().Err(err).Msg("initial RIPE allocation snapshot load failed")
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.refreshOnce(ctx); err != nil {
				w.log.Warn().Err(err).Msg("RIPE allocation snapshot refresh failed, keeping previous snapshot")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *RipeWorker) refreshOnce(ctx context.Context) error {
	prefixes, err := w.source(ctx)
	if err != nil {
		select {
		case w.cmds <- cmd{kind: cmdSwap, swapper: func() { w.lastErr = err }}:
		case <-ctx.Done():
		}
		return err
	}
	next := radix.New[struct{}]()
	for _, p := range prefixes {
		next.Add(p)
	}
	select {
	case w.cmds <- cmd{kind: cmdSwap, swapper: func() {
		w.tree = next
		w.lastSync = time.Now()
		w.lastErr = nil
	}}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (w *RipeWorker) run(ctx context.Context) {
	close(w.ready)
	for {
		select {
		case c := <-w.cmds:
			switch c.kind {
			case cmdQuery:
				w.handleQuery(c.query)
			case cmdSwap:
				c.swapper()
			case cmdStatus:
				c.status <- model.WorkerStatus{Name: w.name, Ready: true, LastSync: w.lastSync, LastError: w.lastErr}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Status implements Monitorable.
func (w *RipeWorker) Status(ctx context.Context) (model.WorkerStatus, error) {
	return dispatchStatus(ctx, w.cmds)
}

func (w *RipeWorker) handleQuery(req *request) {
	res, err := w.query(req.kind, req.target)
	req.reply <- queryReply{result: res, err: err}
}

func (w *RipeWorker) query(kind model.QueryKind, target any) (Result, error) {
	switch kind {
	case model.IsCovered:
		p := target.(netip.Prefix)
		_, ok := w.tree.SearchWorst(p)
		return Result{Covered: ok}, nil
	default:
		return Result{}, fmt.Errorf("ripe-auth worker %s: unsupported query kind %v", w.name, kind)
	}
}

// Dispatch implements Queryable.
func (w *RipeWorker) Dispatch(ctx context.Context, kind model.QueryKind, target any) (Result, error) {
	return dispatchOver(ctx, w.cmds, kind, target)
}
