package report

import "irrexplorer/pkg/model"

// classify implements the advisory decision table: rows are evaluated
// strictly in order, and the first matching row wins. This is
// deliberately a flat sequence of independent conditions, not a nested
// tree, so that later rows can only be reached when every earlier row's
// condition is false.
//
// B is the BGP origin set (empty if not observed in BGP). R is the
// origin set the "ripe" IRR database carries for this prefix. M is
// whether the prefix falls within a RIPE-authoritative range.
// anywhere is the union of origins across every IRR DB including ripe;
// anywhereNotRipe excludes it.
func classify(b, r, anywhere, anywhereNotRipe model.OriginSet, managed bool) (advice, label string) {
	switch {
	case managed && len(r) > 0 && b.SubsetOf(r) && len(anywhere) == 1 && !b.SubsetOf(anywhereNotRipe):
		return "Perfect", "success"
	case managed && len(r) > 0 && b.SubsetOf(r) && b.Equal(anywhereNotRipe):
		return "Proper RIPE DB object, but foreign or proxy objects also exist", "warning"
	case managed && len(r) > 0 && b.SubsetOf(r) && b.SubsetOf(anywhereNotRipe):
		return "Proper RIPE DB object, but foreign objects also exist, consider removing these", "warning"
	case managed && len(r) > 0 && b.SubsetOf(r):
		return "Looks good, but multiple entries exists in RIPE DB", "success"
	case managed && len(r) > 0 && len(b) > 0:
		return "Prefix is in DFZ, but registered with wrong origin in RIPE!", "danger"
	case managed && len(r) > 0 && len(b) == 0:
		return "Not seen in BGP, but (legacy?) route-objects exist, consider clean-up", "warning"
	case managed && len(r) == 0 && len(b) > 0:
		return "Prefix is in DFZ, but NOT registered in RIPE!", "danger"
	case managed && len(r) == 0 && len(b) == 0:
		return "Route objects in foreign registries exist, consider moving them to RIPE DB", "warning"
	case !managed && len(b) > 0 && b.SubsetOf(anywhere) && len(anywhere) == 1:
		return "Looks good: in BGP consistent origin AS in route-objects", "success"
	case !managed && len(b) > 0 && b.SubsetOf(anywhere):
		return "Multiple route-object exist with different origins", "warning"
	case !managed && len(b) > 0:
		return "Prefix in DFZ, but no route-object with correct origin anywhere", "danger"
	default: // !managed && len(b) == 0
		return "Not seen in BGP, but (legacy?) route-objects exist, consider clean-up", "warning"
	}
}
