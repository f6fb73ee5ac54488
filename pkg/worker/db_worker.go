package worker

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"irrexplorer/pkg/config"
	"irrexplorer/pkg/model"
	"irrexplorer/pkg/nrtm"
	"irrexplorer/pkg/radix"
)

// DBWorker mirrors one IRR mirror: it owns a radix tree of route/route6
// objects keyed by prefix (payload: the set of origins announcing that
// prefix), an inverse origin-AS -> prefixes index, and an as-set
// membership map. Ingest and lookups are two variants of the same
// command that this worker's single goroutine drains in arrival order.
type DBWorker struct {
	name         string
	familyFilter config.FamilyFilter
	serialFile   string

	cmds  chan cmd
	ready chan struct{}

	log zerolog.Logger

	// owned exclusively by run(); never touched from another goroutine
	tree     *radix.Tree[model.OriginSet]
	inverse  *inverseIndex
	assets   map[string][]string
	serial   uint64
	lastSync time.Time
	lastErr  error
}

// NewDBWorker constructs a worker for one configured IRR database. Call
// Start to begin serving; Start spawns the owning goroutine.
func NewDBWorker(name string, filter config.FamilyFilter, serialFile string, log zerolog.Logger) *DBWorker {
	return &DBWorker{
		name:         name,
		familyFilter: filter,
		serialFile:   serialFile,
		cmds:         make(chan cmd, 64),
		ready:        make(chan struct{}),
		log:          log.With().Str("db", name).Logger(),
		tree:         radix.New[model.OriginSet](),
		inverse:      newInverseIndex(),
		assets:       make(map[string][]string),
	}
}

// Name implements Queryable.
func (w *DBWorker) Name() string { return w.name }

// Ready returns a channel that is closed once the worker's run loop is
// servicing commands. The HTTP layer waits (with a bound) on every
// worker's readiness signal before accepting traffic; queries continue
// to be served against the in-place (possibly still empty or stale)
// view while an NRTM resync is in flight, so readiness here means "can
// accept commands", not "fully synced".
func (w *DBWorker) Ready() <-chan struct{} { return w.ready }

// Start resumes from the persisted serial (if a serial_file is
// configured and readable) and launches the ingest-forwarder and the
// owning run loop.
func (w *DBWorker) Start(ctx context.Context, stream nrtm.Stream) {
	if w.serialFile != "" {
		if serial, err := loadSerial(w.serialFile); err == nil {
			w.serial = serial
			if resumable, ok := stream.(nrtm.Resumable); ok {
				resumable.Resume(serial)
			}
		} else {
			w.log.Warn().Err(err).Msg("no resumable serial on disk, starting a full sync")
		}
	}

	go w.forwardIngest(ctx, stream)
	go w.run(ctx)
}

func (w *DBWorker) forwardIngest(ctx context.Context, stream nrtm.Stream) {
	for {
		select {
		case item, ok := <-stream.Items():
			if !ok {
				return
			}
			it := item
			select {
			case w.cmds <- cmd{kind: cmdIngest, ingest: &it}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *DBWorker) run(ctx context.Context) {
	close(w.ready)
	for {
		select {
		case c := <-w.cmds:
			switch c.kind {
			case cmdIngest:
				w.handleIngest(c.ingest)
			case cmdQuery:
				w.handleQuery(c.query)
			case cmdSwap:
				c.swapper()
			case cmdStatus:
				c.status <- w.statusSnapshot()
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *DBWorker) handleIngest(it *nrtm.Item) {
	if it.Command == nrtm.CmdReset {
		w.log.Warn().Msg("NRTM serial overrun, resyncing: flushing tree, inverse map and as-set map")
		w.tree = radix.New[model.OriginSet]()
		w.inverse.reset()
		w.assets = make(map[string][]string)
		w.serial = it.Serial
		w.lastSync = time.Now()
		w.persistSerial()
		return
	}

	obj := it.Object
	if obj == nil {
		return
	}
	if obj.Source != w.name {
		w.log.Debug().Str("source", obj.Source).Msg("dropping object for a different database")
		return
	}

	switch obj.Kind {
	case model.KindRoute, model.KindRoute6:
		w.ingestRoute(it.Command, obj)
	case model.KindAsSet:
		w.ingestAsSet(it.Command, obj)
	default:
		w.log.Warn().Str("kind", string(obj.Kind)).Msg("dropping object of unrecognized kind")
	}
	w.serial = it.Serial
	w.lastSync = time.Now()
	w.persistSerial()
}

// statusSnapshot builds a WorkerStatus from run()-owned state. Only
// called from within run(), so no synchronization is needed.
func (w *DBWorker) statusSnapshot() model.WorkerStatus {
	return model.WorkerStatus{
		Name:       w.name,
		Ready:      true,
		LastSerial: w.serial,
		LastSync:   w.lastSync,
		LastError:  w.lastErr,
	}
}

// Status implements Monitorable.
func (w *DBWorker) Status(ctx context.Context) (model.WorkerStatus, error) {
	return dispatchStatus(ctx, w.cmds)
}

func (w *DBWorker) ingestRoute(command nrtm.Command, obj *model.RouteOrSetObject) {
	if !obj.Prefix.IsValid() {
		w.log.Warn().Str("prefix", obj.Prefix.String()).Msg("dropping route object with an invalid prefix")
		return
	}
	if !w.familyAllowed(obj.Prefix) {
		return
	}

	switch command {
	case nrtm.CmdAdd:
		n, _ := w.tree.Add(obj.Prefix)
		if *n.Data() == nil {
			*n.Data() = model.OriginSet{}
		}
		n.Data().Add(obj.Origin)
		w.inverse.add(obj.Origin, obj.Prefix)
	case nrtm.CmdDel:
		if n, ok := w.tree.SearchExact(obj.Prefix); ok && *n.Data() != nil {
			n.Data().Remove(obj.Origin)
		} else {
			w.log.Warn().Str("prefix", obj.Prefix.String()).Msg("DEL for a prefix not present in the tree")
		}
		if !w.inverse.remove(obj.Origin, obj.Prefix) {
			w.log.Warn().Str("prefix", obj.Prefix.String()).Uint32("origin", uint32(obj.Origin)).Msg("DEL for an (origin, prefix) pair not present in the inverse map")
		}
	}
}

func (w *DBWorker) ingestAsSet(command nrtm.Command, obj *model.RouteOrSetObject) {
	switch command {
	case nrtm.CmdAdd:
		w.assets[obj.Name] = obj.Members
	case nrtm.CmdDel:
		if _, ok := w.assets[obj.Name]; !ok {
			w.log.Warn().Str("as-set", obj.Name).Msg("DEL for an as-set not present in the map")
			return
		}
		delete(w.assets, obj.Name)
	}
}

func (w *DBWorker) familyAllowed(p netip.Prefix) bool {
	switch w.familyFilter {
	case config.FamilyV4:
		return p.Addr().Is4()
	case config.FamilyV6:
		return p.Addr().Is6()
	default:
		return true
	}
}

func (w *DBWorker) handleQuery(req *request) {
	res, err := w.query(req.kind, req.target)
	req.reply <- queryReply{result: res, err: err}
}

func (w *DBWorker) query(kind model.QueryKind, target any) (Result, error) {
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
		o := target.(model.Origin)
		return Result{Prefixes: append([]netip.Prefix(nil), w.inverse.prefixes(o)...)}, nil

	case model.AssetSearch:
		name := target.(string)
		return Result{Members: append([]string(nil), w.assets[name]...)}, nil

	default:
		return Result{}, fmt.Errorf("db worker %s: unsupported query kind %v", w.name, kind)
	}
}

// Dispatch implements Queryable.
func (w *DBWorker) Dispatch(ctx context.Context, kind model.QueryKind, target any) (Result, error) {
	return dispatchOver(ctx, w.cmds, kind, target)
}

func loadSerial(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var snap struct {
		Serial  uint64
		SavedAt time.Time
	}
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return 0, err
	}
	return snap.Serial, nil
}

func (w *DBWorker) persistSerial() {
	if w.serialFile == "" {
		return
	}
	data, err := msgpack.Marshal(struct {
		Serial  uint64
		SavedAt time.Time
	}{Serial: w.serial, SavedAt: time.Now()})
	if err != nil {
		w.log.Warn().Err(err).Msg("failed to encode serial checkpoint")
		w.lastErr = err
		return
	}
	if err := os.WriteFile(w.serialFile, data, 0o644); err != nil {
		w.log.Warn().Err(err).Str("path", w.serialFile).Msg("failed to persist serial checkpoint")
		w.lastErr = err
		return
	}
	w.lastErr = nil
}
