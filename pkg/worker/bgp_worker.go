package worker

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/rs/zerolog"

	"irrexplorer/pkg/bgpsnapshot"
	"irrexplorer/pkg/model"
	"irrexplorer/pkg/radix"
)

// BGPWorker mirrors the observed global BGP table. There is no NRTM
// feed and no as-sets here: the worker periodically calls a
// bgpsnapshot.Source and swaps in the freshly built tree atomically, on
// its own goroutine, via the same unified command queue every other
// worker uses.
type BGPWorker struct {
	name     string
	interval time.Duration
	source   bgpsnapshot.Source

	cmds  chan cmd
	ready chan struct{}

	log zerolog.Logger

	tree     *radix.Tree[model.OriginSet]
	lastSync time.Time
	lastErr  error
}

// NewBGPWorker constructs a BGP worker. interval controls how often
// source is re-invoked to refresh the snapshot.
func NewBGPWorker(name string, interval time.Duration, source bgpsnapshot.Source, log zerolog.Logger) *BGPWorker {
	return &BGPWorker{
		name:     name,
		interval: interval,
		source:   source,
		cmds:     make(chan cmd, 64),
		ready:    make(chan struct{}),
		log:      log.With().Str("worker", name).Logger(),
		tree:     radix.New[model.OriginSet](),
	}
}

// Name implements Queryable.
func (w *BGPWorker) Name() string { return w.name }

// Ready implements the same readiness contract as DBWorker: closed once
// the run loop is servicing commands (not once the first snapshot has
// loaded).
func (w *BGPWorker) Ready() <-chan struct{} { return w.ready }

// Start launches the periodic refresher and the owning run loop.
func (w *BGPWorker) Start(ctx context.Context) {
	go w.refreshLoop(ctx)
	go w.run(ctx)
}

func (w *BGPWorker) refreshLoop(ctx context.Context) {
	if err := w.refreshOnce(ctx); err != nil {
		w.log.Warn().Err(err).Msg("initial BGP snapshot load failed")
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.refreshOnce(ctx); err != nil {
				w.log.Warn().Err(err).Msg("BGP snapshot refresh failed, keeping previous snapshot")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *BGPWorker) refreshOnce(ctx context.Context) error {
	objs, err := w.source(ctx)
	if err != nil {
		select {
		case w.cmds <- cmd{kind: cmdSwap, swapper: func() { w.lastErr = err }}:
		case <-ctx.Done():
		}
		return err
	}
	next := radix.New[model.OriginSet]()
	for _, o := range objs {
		n, _ := next.Add(o.Prefix)
		if *n.Data() == nil {
			*n.Data() = model.OriginSet{}
		}
		n.Data().Add(o.Origin)
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

func (w *BGPWorker) run(ctx context.Context) {
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
func (w *BGPWorker) Status(ctx context.Context) (model.WorkerStatus, error) {
	return dispatchStatus(ctx, w.cmds)
}

func (w *BGPWorker) handleQuery(req *request) {
	res, err := w.query(req.kind, req.target)
	req.reply <- queryReply{result: res, err: err}
}

func (w *BGPWorker) query(kind model.QueryKind, target any) (Result, error) {
	switch kind {
	case model.SearchExact:
		p := target.(netip.Prefix)
		out := map[netip.Prefix]model.OriginSet{}
		if n, ok := w.tree.SearchExact(p); ok && *n.Data() != nil && len(*n.Data()) > 0 {
			out[p] = (*n.Data()).Clone()
		}
		return Result{Origins: out}, nil

	case model.SearchWorst:
		p := target.(netip.Prefix)
		n, ok := w.tree.SearchWorst(p)
		if !ok || *n.Data() == nil || len(*n.Data()) == 0 {
			return Result{WorstFound: false}, nil
		}
		return Result{WorstFound: true, WorstPrefix: n.Prefix(), WorstOrigins: (*n.Data()).Clone()}, nil

	case model.SearchCovered:
		p := target.(netip.Prefix)
		out := map[netip.Prefix]model.OriginSet{}
		for _, n := range w.tree.SearchCovered(p) {
			if *n.Data() != nil && len(*n.Data()) > 0 {
				out[n.Prefix()] = (*n.Data()).Clone()
			}
		}
		return Result{Origins: out}, nil

	case model.InverseASN:
		// The BGP worker has no inverse index: observed table only, no
		// as-sets, no ASN->prefix reverse lookup.
		return Result{}, nil

	case model.AssetSearch:
		return Result{}, nil

	default:
		return Result{}, fmt.Errorf("bgp worker %s: unsupported query kind %v", w.name, kind)
	}
}

// Dispatch implements Queryable.
func (w *BGPWorker) Dispatch(ctx context.Context, kind model.QueryKind, target any) (Result, error) {
	return dispatchOver(ctx, w.cmds, kind, target)
}
