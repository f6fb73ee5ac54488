// Package ripesnapshot defines the callback contract the RIPE-Auth
// Worker uses to (re)load the inetnum/inet6num allocation tree. Loading
// the actual RIPE DB dump is out of scope; the worker only needs a
// function it can call on an interval.
package ripesnapshot

import (
	"context"
	"net/netip"
)

// Source returns the current set of RIPE-authoritative allocation
// ranges. Re-invoked on a configurable interval by the RIPE-Auth
// Worker.
type Source func(ctx context.Context) ([]netip.Prefix, error)

// FromSlice builds a static Source for tests and for callers who
// already hold a RIPE snapshot in memory.
func FromSlice(prefixes []netip.Prefix) Source {
	return func(ctx context.Context) ([]netip.Prefix, error) {
		return prefixes, nil
	}
}
