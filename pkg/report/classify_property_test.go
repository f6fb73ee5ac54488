package report

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"irrexplorer/pkg/model"
)

func genOriginSet(maxOrigin int) gopter.Gen {
	return gen.SliceOfN(3, gen.IntRange(0, maxOrigin)).Map(func(v []int) model.OriginSet {
		s := model.OriginSet{}
		for _, o := range v {
			s.Add(model.Origin(o))
		}
		return s
	})
}

// Property 7: the decision table is total — every combination of
// (managed, B, R, anywhere, anywhereNotRipe) maps to exactly one
// (advice, label) pair, and label is always one of the three known
// severities.
func TestProperty_ClassifierTotality(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("classify always returns a non-empty advice and a known label", prop.ForAll(
		func(managed bool, b, r, anywhere, anywhereNotRipe model.OriginSet) bool {
			advice, label := classify(b, r, anywhere, anywhereNotRipe, managed)
			if advice == "" {
				return false
			}
			switch label {
			case "success", "warning", "danger":
				return true
			default:
				return false
			}
		},
		gen.Bool(),
		genOriginSet(3),
		genOriginSet(3),
		genOriginSet(3),
		genOriginSet(3),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
