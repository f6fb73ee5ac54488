package worker

import (
	"fmt"
	"net/netip"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"irrexplorer/pkg/model"
)

func mustTestPrefix(s string) netip.Prefix { return netip.MustParsePrefix(s) }

func genOrigin() gopter.Gen {
	return gen.IntRange(1, 100).Map(func(v int) model.Origin { return model.Origin(v) })
}

func genPrefixOctet() gopter.Gen { return gen.IntRange(0, 255) }

// Property: repeated ADDs of the same (origin, prefix) pair never grow
// the inverse index past a single entry.
func TestProperty_InverseIndexAddIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("duplicate adds of the same (origin, prefix) pair do not grow the index", prop.ForAll(
		func(origin model.Origin, a, b, c, d, repeats int) bool {
			idx := newInverseIndex()
			p := mustTestPrefix(fmt.Sprintf("%d.%d.%d.%d/32", a, b, c, d))
			for i := 0; i < repeats+1; i++ {
				idx.add(origin, p)
			}
			return len(idx.prefixes(origin)) == 1
		},
		genOrigin(),
		genPrefixOctet(),
		genPrefixOctet(),
		genPrefixOctet(),
		genPrefixOctet(),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: add followed by remove returns the index to empty for that
// origin, and a second remove reports a soft failure rather than
// panicking or going negative.
func TestProperty_InverseIndexRemoveIsReversible(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("add then remove empties the origin's prefix list", prop.ForAll(
		func(origin model.Origin, a, b, c, d int) bool {
			idx := newInverseIndex()
			p := mustTestPrefix(fmt.Sprintf("%d.%d.%d.%d/32", a, b, c, d))
			idx.add(origin, p)
			if !idx.remove(origin, p) {
				return false
			}
			if len(idx.prefixes(origin)) != 0 {
				return false
			}
			return !idx.remove(origin, p)
		},
		genOrigin(),
		genPrefixOctet(),
		genPrefixOctet(),
		genPrefixOctet(),
		genPrefixOctet(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
