package radix

import (
	"fmt"
	"net/netip"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func prefixFrom(a, b, c, d, bits int) netip.Prefix {
	return netip.MustParsePrefix(fmt.Sprintf("%d.%d.%d.%d/%d", a, b, c, d, bits))
}

// Property: AddIdempotence — inserting the same prefix twice never grows
// the tree's size past one entry for that prefix.
func TestProperty_AddIdempotence(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding a prefix twice leaves the tree at the same size as adding it once", prop.ForAll(
		func(a, b, c, d, bits int) bool {
			p := prefixFrom(a, b, c, d, bits)
			tr := New[int]()
			tr.Add(p)
			sizeAfterOne := tr.Size()
			tr.Add(p)
			return tr.Size() == sizeAfterOne
		},
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 32),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: DeleteThenAddRoundTrip — deleting an inserted prefix then
// re-adding it restores SearchExact to a hit, with Add reporting a
// freshly created node for the same canonical prefix.
func TestProperty_DeleteThenAddRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("delete then add restores SearchExact", prop.ForAll(
		func(a, b, c, d, bits int) bool {
			p := prefixFrom(a, b, c, d, bits)
			tr := New[int]()
			tr.Add(p)
			if !tr.Delete(p) {
				return false
			}
			if _, ok := tr.SearchExact(p); ok {
				return false
			}
			n, created := tr.Add(p)
			if !created {
				return false
			}
			_, ok := tr.SearchExact(p)
			return ok && n.Prefix() == p.Masked()
		},
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 32),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: SearchCoveredContainment — every node returned by
// SearchCovered(p) is itself contained within or equal to p.
func TestProperty_SearchCoveredContainment(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("SearchCovered only returns prefixes contained in the query", prop.ForAll(
		func(a, b, c, d, bits, subBits int) bool {
			p := prefixFrom(a, b, c, d, bits)
			sub := prefixFrom(a, b, c, d, subBits)
			tr := New[int]()
			tr.Add(p)
			tr.Add(sub)
			for _, n := range tr.SearchCovered(p) {
				if n.Prefix() == p.Masked() {
					continue
				}
				if !p.Masked().Contains(n.Prefix().Addr()) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 32),
		gen.IntRange(0, 32),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
