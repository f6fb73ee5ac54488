package worker

import (
	"context"
	"time"

	"irrexplorer/pkg/model"
)

// Registry owns every running worker and is the single object the HTTP
// layer depends on: an explicit registry struct owned by the HTTP
// server rather than a package-level global. It is populated once at
// startup and not mutated afterwards.
type Registry struct {
	dbs  map[string]*DBWorker
	bgp  *BGPWorker
	ripe *RipeWorker
}

// NewRegistry builds an empty registry. Call AddDB/SetBGP/SetRipe to
// populate it before it serves queries.
func NewRegistry() *Registry {
	return &Registry{dbs: make(map[string]*DBWorker)}
}

// AddDB registers a configured IRR database worker.
func (r *Registry) AddDB(w *DBWorker) { r.dbs[w.Name()] = w }

// SetBGP registers the BGP worker.
func (r *Registry) SetBGP(w *BGPWorker) { r.bgp = w }

// SetRipe registers the RIPE-Auth worker.
func (r *Registry) SetRipe(w *RipeWorker) { r.ripe = w }

// DB looks up a configured database worker by name.
func (r *Registry) DB(name string) (*DBWorker, bool) {
	w, ok := r.dbs[name]
	return w, ok
}

// DBs returns every configured database worker, in no particular order.
func (r *Registry) DBs() []*DBWorker {
	out := make([]*DBWorker, 0, len(r.dbs))
	for _, w := range r.dbs {
		out = append(out, w)
	}
	return out
}

// BGP returns the BGP worker, if one is configured.
func (r *Registry) BGP() (*BGPWorker, bool) { return r.bgp, r.bgp != nil }

// Ripe returns the RIPE-Auth worker, if one is configured.
func (r *Registry) Ripe() (*RipeWorker, bool) { return r.ripe, r.ripe != nil }

// WaitReady blocks until every registered worker has signaled readiness
// or timeout elapses. The HTTP server must not accept traffic before
// its workers can accept commands, but a single slow or stuck feed must
// not wedge the whole service indefinitely. Returns the names of
// workers that did not become ready in time (empty on success).
func (r *Registry) WaitReady(ctx context.Context, timeout time.Duration) []string {
	type named struct {
		name  string
		ready <-chan struct{}
	}
	var all []named
	for name, w := range r.dbs {
		all = append(all, named{name, w.Ready()})
	}
	if r.bgp != nil {
		all = append(all, named{r.bgp.Name(), r.bgp.Ready()})
	}
	if r.ripe != nil {
		all = append(all, named{r.ripe.Name(), r.ripe.Ready()})
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var notReady []string
	for _, n := range all {
		select {
		case <-n.ready:
		case <-waitCtx.Done():
			notReady = append(notReady, n.name)
		}
	}
	return notReady
}

// Statuses gathers a WorkerStatus snapshot from every registered worker,
// backing the /status health endpoint. A worker that fails to respond
// before ctx is done is reported with its name, Ready: false and the
// error as LastError, rather than dropped from the list.
func (r *Registry) Statuses(ctx context.Context) []model.WorkerStatus {
	var monitors []Monitorable
	var fallbackNames []string
	for _, w := range r.dbs {
		monitors = append(monitors, w)
		fallbackNames = append(fallbackNames, w.Name())
	}
	if r.bgp != nil {
		monitors = append(monitors, r.bgp)
		fallbackNames = append(fallbackNames, r.bgp.Name())
	}
	if r.ripe != nil {
		monitors = append(monitors, r.ripe)
		fallbackNames = append(fallbackNames, r.ripe.Name())
	}

	out := make([]model.WorkerStatus, len(monitors))
	for i, m := range monitors {
		s, err := m.Status(ctx)
		if err != nil {
			out[i] = model.WorkerStatus{Name: fallbackNames[i], Ready: false, LastError: err}
			continue
		}
		out[i] = s
	}
	return out
}
