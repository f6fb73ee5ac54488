package httpapi

import (
	"sort"
	"time"

	"irrexplorer/pkg/model"
	"irrexplorer/pkg/report"
)

// statusJSON is the wire shape of one model.WorkerStatus entry returned
// by GET /status.
type statusJSON struct {
	Name       string    `json:"name"`
	Ready      bool      `json:"ready"`
	LastSerial uint64    `json:"last_serial,omitempty"`
	LastSync   time.Time `json:"last_sync,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// missingSentinel is substituted for a false/empty DB or BGP cell in the
// JSON response.
const missingSentinel = "-"

// prefixJSON is the wire shape of one PrefixResult: origins render as
// sorted ASN lists (stable across requests), and an empty/absent source
// renders as the "-" sentinel rather than an empty list.
type prefixJSON struct {
	BGPOrigin   any            `json:"bgp_origin"`
	DBOrigins   map[string]any `json:"irr_origins"`
	RipeManaged bool           `json:"ripe_managed"`
	Advice      string         `json:"advice"`
	Label       string         `json:"label"`
}

type reportJSON struct {
	Aggregate  string                `json:"aggregate"`
	Prefixes   map[string]prefixJSON `json:"prefixes"`
	DroppedDBs []string              `json:"dropped_dbs,omitempty"`
	Summary    string                `json:"summary"`
}

func toJSON(rep *report.Report) reportJSON {
	prefixes := make(map[string]prefixJSON, len(rep.Prefixes))
	for p, pr := range rep.Prefixes {
		dbOrigins := make(map[string]any, len(pr.DBOrigins))
		for dbname, origins := range pr.DBOrigins {
			dbOrigins[dbname] = originsOrSentinel(origins)
		}
		prefixes[p.String()] = prefixJSON{
			BGPOrigin:   originsOrSentinel(pr.BGPOrigin),
			DBOrigins:   dbOrigins,
			RipeManaged: pr.RipeManaged,
			Advice:      pr.Advice,
			Label:       pr.Label,
		}
	}
	return reportJSON{
		Aggregate:  rep.Aggregate.String(),
		Prefixes:   prefixes,
		DroppedDBs: rep.DroppedDBs,
		Summary:    rep.Summary,
	}
}

func originsOrSentinel(s model.OriginSet) any {
	if len(s) == 0 {
		return missingSentinel
	}
	return sortedOrigins(s)
}

func sortedOrigins(s model.OriginSet) []model.Origin {
	out := s.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
