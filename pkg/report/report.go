// Package report implements the prefix-report engine: scope resolution
// (exact or aggregate), the cross-source union, the RIPE-authoritative
// coverage check, advisory classification and the column-drop
// post-process.
package report

import (
	"context"
	"fmt"
	"net/netip"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"irrexplorer/pkg/fanout"
	"irrexplorer/pkg/model"
	"irrexplorer/pkg/radix"
	"irrexplorer/pkg/worker"
)

// PrefixResult is one row of a prefix report: the BGP-observed origin
// set, the per-IRR-DB origin sets (only for DBs that survived the
// column-drop post-process), RIPE coverage, and the advisory verdict.
type PrefixResult struct {
	BGPOrigin   model.OriginSet
	DBOrigins   map[string]model.OriginSet
	RipeManaged bool
	Advice      string
	Label       string
}

// Report is the full response of a prefix_report call.
type Report struct {
	Aggregate  netip.Prefix
	Prefixes   map[netip.Prefix]*PrefixResult
	DroppedDBs []string
	Summary    string
}

// Engine ties the registry of workers to the report-building logic. It
// holds no state of its own beyond the registry reference and which
// configured DB is RIPE's own IRR mirror (used by the classifier to
// isolate R from anywhere_not_ripe).
type Engine struct {
	registry *worker.Registry
	ripeDB   string
	log      zerolog.Logger
}

// NewEngine builds a report engine. ripeDBName is the dbname of the
// configured IRR database that mirrors RIPE's own registry (commonly
// "ripe"); it need not be present in the registry, in which case R is
// always treated as empty.
func NewEngine(registry *worker.Registry, ripeDBName string, log zerolog.Logger) *Engine {
	return &Engine{registry: registry, ripeDB: ripeDBName, log: log}
}

// PrefixReport builds the cross-registry report for prefix, either in
// exact scope (the literal prefix only) or aggregate scope (the
// least-specific covering prefix plus every more-specific object below
// it).
func (e *Engine) PrefixReport(ctx context.Context, prefix netip.Prefix, exact bool) (*Report, error) {
	start := time.Now()
	dbs := e.registry.DBs()
	bgpW, hasBGP := e.registry.BGP()
	ripeW, hasRipe := e.registry.Ripe()

	var bgpSpecifics fanout.SourceResult
	var irrSpecifics []fanout.SourceResult
	aggregate := prefix

	if exact {
		if hasBGP {
			bgpSpecifics, _ = fanout.OtherQuery(ctx, bgpW, nil, model.SearchExact, prefix, e.log)
		}
		irrSpecifics = fanout.IRRQuery(ctx, dbs, model.SearchExact, prefix, e.log)
	} else {
		var bgpAgg fanout.SourceResult
		if hasBGP {
			bgpAgg, _ = fanout.OtherQuery(ctx, bgpW, nil, model.SearchWorst, prefix, e.log)
		}
		irrAgg := fanout.IRRQuery(ctx, dbs, model.SearchWorst, prefix, e.log)

		candidates := radix.New[struct{}]()
		if bgpAgg.Result.WorstFound {
			candidates.Add(bgpAgg.Result.WorstPrefix)
		}
		for _, r := range irrAgg {
			if r.Result.WorstFound {
				candidates.Add(r.Result.WorstPrefix)
			}
		}
		node, ok := candidates.SearchWorst(prefix)
		if !ok {
			return nil, model.ErrNoPrefix
		}
		aggregate = node.Prefix()

		if hasBGP {
			bgpSpecifics, _ = fanout.OtherQuery(ctx, bgpW, nil, model.SearchCovered, aggregate, e.log)
		}
		irrSpecifics = fanout.IRRQuery(ctx, dbs, model.SearchCovered, aggregate, e.log)
	}

	for _, r := range irrSpecifics {
		if r.Err != nil {
			return nil, fmt.Errorf("%w: irr db %s: %v", model.ErrInternal, r.Source, r.Err)
		}
	}
	if bgpSpecifics.Err != nil {
		return nil, fmt.Errorf("%w: bgp: %v", model.ErrInternal, bgpSpecifics.Err)
	}

	// Step 2: union every prefix key seen from BGP or any IRR DB.
	results := make(map[netip.Prefix]*PrefixResult)
	ensure := func(p netip.Prefix) *PrefixResult {
		if pr, ok := results[p]; ok {
			return pr
		}
		pr := &PrefixResult{DBOrigins: make(map[string]model.OriginSet)}
		results[p] = pr
		return pr
	}
	for p, origins := range bgpSpecifics.Result.Origins {
		ensure(p).BGPOrigin = origins
	}
	for _, r := range irrSpecifics {
		for p, origins := range r.Result.Origins {
			ensure(p).DBOrigins[r.Source] = origins
		}
	}

	if len(results) == 0 && !exact {
		return nil, model.ErrNoPrefix
	}

	// Step 3: RIPE-authoritative coverage, one query per result key.
	if hasRipe {
		if err := e.annotateCoverage(ctx, ripeW, results); err != nil {
			return nil, fmt.Errorf("%w: ripe-auth: %v", model.ErrInternal, err)
		}
	}

	// Step 4: advisory classification.
	for _, pr := range results {
		anywhere := model.OriginSet{}
		anywhereNotRipe := model.OriginSet{}
		for dbname, origins := range pr.DBOrigins {
			anywhere = anywhere.Union(origins)
			if dbname != e.ripeDB {
				anywhereNotRipe = anywhereNotRipe.Union(origins)
			}
		}
		r := pr.DBOrigins[e.ripeDB]
		pr.Advice, pr.Label = classify(pr.BGPOrigin, r, anywhere, anywhereNotRipe, pr.RipeManaged)
	}

	// Step 5: post-process — drop IRR DB columns with no data anywhere in
	// the result, and report which DBs were dropped.
	dropped := e.dropEmptyColumns(dbs, results)

	e.log.Debug().Str("prefix", prefix.String()).Bool("exact", exact).Dur("elapsed", time.Since(start)).Msg("prefix report built")

	return &Report{
		Aggregate:  aggregate,
		Prefixes:   results,
		DroppedDBs: dropped,
		Summary:    summarize(dropped),
	}, nil
}

func (e *Engine) annotateCoverage(ctx context.Context, ripeW worker.Queryable, results map[netip.Prefix]*PrefixResult) error {
	g, gctx := errgroup.WithContext(ctx)
	for p, pr := range results {
		p, pr := p, pr
		g.Go(func() error {
			res, err := ripeW.Dispatch(gctx, model.IsCovered, p)
			if err != nil {
				return err
			}
			pr.RipeManaged = res.Covered
			return nil
		})
	}
	return g.Wait()
}

// dropEmptyColumns removes every configured IRR DB that has no data on
// any prefix in the result set, from every PrefixResult.DBOrigins map,
// and returns the list of dropped DB names (sorted, for a deterministic
// summary message).
func (e *Engine) dropEmptyColumns(dbs []*worker.DBWorker, results map[netip.Prefix]*PrefixResult) []string {
	hasData := make(map[string]bool, len(dbs))
	for _, pr := range results {
		for dbname, origins := range pr.DBOrigins {
			if len(origins) > 0 {
				hasData[dbname] = true
			}
		}
	}
	var dropped []string
	var retained []string
	for _, w := range dbs {
		if hasData[w.Name()] {
			retained = append(retained, w.Name())
		} else {
			dropped = append(dropped, w.Name())
		}
	}
	sort.Strings(dropped)
	for _, name := range dropped {
		for _, pr := range results {
			delete(pr.DBOrigins, name)
		}
	}
	// Every retained DB appears on every prefix, with an empty set (the
	// "-" sentinel at the serialization layer) where it has no data.
	for _, name := range retained {
		for _, pr := range results {
			if _, ok := pr.DBOrigins[name]; !ok {
				pr.DBOrigins[name] = model.OriginSet{}
			}
		}
	}
	return dropped
}

func summarize(dropped []string) string {
	if len(dropped) == 0 {
		return "all configured IRR databases returned data for this prefix"
	}
	return fmt.Sprintf("no data in: %v", dropped)
}
