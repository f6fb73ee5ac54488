// Package model holds the data types shared across the IRR Explorer
// packages: route/as-set objects, origin sets, query kinds and the
// error taxonomy surfaced through the HTTP layer.
package model

import (
	"errors"
	"net/netip"
	"time"
)

// Origin is an autonomous system number. The wire format (NRTM, RIB
// snapshots) carries ASNs as plain integers; 32-bit covers the full
// current allocation range.
type Origin uint32

// OriginSet is the idiomatic Go set used everywhere a bgp_origin or
// route-object origin collection is needed. Using one concrete type end
// to end, rather than sometimes a scalar and sometimes a list, keeps
// the classifier's set operations unambiguous.
type OriginSet map[Origin]struct{}

// NewOriginSet builds a set from a list of origins.
func NewOriginSet(origins ...Origin) OriginSet {
	s := make(OriginSet, len(origins))
	for _, o := range origins {
		s[o] = struct{}{}
	}
	return s
}

// Add inserts an origin into the set.
func (s OriginSet) Add(o Origin) { s[o] = struct{}{} }

// Remove deletes an origin from the set.
func (s OriginSet) Remove(o Origin) { delete(s, o) }

// Has reports whether o is a member of s.
func (s OriginSet) Has(o Origin) bool {
	_, ok := s[o]
	return ok
}

// Clone returns a shallow copy.
func (s OriginSet) Clone() OriginSet {
	c := make(OriginSet, len(s))
	for o := range s {
		c[o] = struct{}{}
	}
	return c
}

// Union returns a new set containing every origin present in either set.
func (s OriginSet) Union(other OriginSet) OriginSet {
	out := s.Clone()
	for o := range other {
		out[o] = struct{}{}
	}
	return out
}

// SubsetOf reports whether every member of s is also a member of other.
// The empty set is a subset of everything, including the empty set.
func (s OriginSet) SubsetOf(other OriginSet) bool {
	for o := range s {
		if !other.Has(o) {
			return false
		}
	}
	return true
}

// Equal reports whether s and other contain exactly the same origins.
func (s OriginSet) Equal(other OriginSet) bool {
	if len(s) != len(other) {
		return false
	}
	return s.SubsetOf(other)
}

// Slice returns the origins in unspecified order.
func (s OriginSet) Slice() []Origin {
	out := make([]Origin, 0, len(s))
	for o := range s {
		out = append(out, o)
	}
	return out
}

// ObjectKind is the RPSL object kind an NRTM/route-table entry carries.
type ObjectKind string

const (
	KindRoute  ObjectKind = "route"
	KindRoute6 ObjectKind = "route6"
	KindAsSet  ObjectKind = "as-set"
)

// RouteObject is a single (prefix, origin, source) triple as delivered
// by a BGP RIB snapshot (NRTM items carry RouteOrSetObject instead).
type RouteObject struct {
	Prefix netip.Prefix
	Origin Origin
	Source string // dbname this object belongs to
	Kind   ObjectKind
}

// QueryKind enumerates the lookup requests a worker can serve, a typed
// enum rather than a bare string passed through the command queue.
type QueryKind int

const (
	SearchExact QueryKind = iota
	SearchWorst           // aggregate / least-specific covering prefix
	SearchCovered         // specifics / all covered prefixes
	InverseASN
	AssetSearch
	IsCovered // RIPE-Auth only
)

// WorkerStatus is the health/readiness snapshot a worker publishes for
// the registry and for ambient logging. Not part of the query path.
type WorkerStatus struct {
	Name       string
	Ready      bool
	LastSerial uint64
	LastSync   time.Time
	LastError  error
}

// Error kinds surfaced through the HTTP layer. Ingest-side failures
// (IngestDrop, StreamReset) never become one of these; they are
// contained and logged inside the worker that observed them.
var (
	ErrBadInput      = errors.New("bad input")
	ErrNoPrefix      = errors.New("no matching prefix in any IRR or BGP table")
	ErrWorkerUnready = errors.New("worker not ready")
	ErrInternal      = errors.New("internal error")
)
