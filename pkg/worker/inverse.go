package worker

import (
	"net/netip"

	"irrexplorer/pkg/model"
)

// inverseIndex is the origin-AS -> prefix-list map: every (origin,
// prefix) pair must appear at most once. Appending on every ADD without
// checking would grow the list unboundedly under re-ADDs of the same
// object; this index dedups on add and is therefore a set with
// insertion-order iteration, not a multiset.
type inverseIndex struct {
	order map[model.Origin][]netip.Prefix
	seen  map[model.Origin]map[netip.Prefix]struct{}
}

func newInverseIndex() *inverseIndex {
	return &inverseIndex{
		order: make(map[model.Origin][]netip.Prefix),
		seen:  make(map[model.Origin]map[netip.Prefix]struct{}),
	}
}

// add records that origin announces prefix. A repeat of the same pair
// is a no-op, preserving invariant 1.
func (idx *inverseIndex) add(origin model.Origin, prefix netip.Prefix) {
	if idx.seen[origin] == nil {
		idx.seen[origin] = make(map[netip.Prefix]struct{})
	}
	if _, ok := idx.seen[origin][prefix]; ok {
		return
	}
	idx.seen[origin][prefix] = struct{}{}
	idx.order[origin] = append(idx.order[origin], prefix)
}

// remove deletes the (origin, prefix) pair. Removing a pair that was
// never added is a soft error the caller logs; remove reports whether
// anything was actually removed.
func (idx *inverseIndex) remove(origin model.Origin, prefix netip.Prefix) bool {
	if _, ok := idx.seen[origin][prefix]; !ok {
		return false
	}
	delete(idx.seen[origin], prefix)
	list := idx.order[origin]
	for i, p := range list {
		if p == prefix {
			idx.order[origin] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return true
}

// prefixes returns the prefixes announced by origin, in insertion
// order. The returned slice must not be mutated by the caller.
func (idx *inverseIndex) prefixes(origin model.Origin) []netip.Prefix {
	return idx.order[origin]
}

// reset clears the index, used on NRTM serial overrun.
func (idx *inverseIndex) reset() {
	idx.order = make(map[model.Origin][]netip.Prefix)
	idx.seen = make(map[model.Origin]map[netip.Prefix]struct{})
}
