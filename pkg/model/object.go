package model

import "net/netip"

// RouteOrSetObject is the decoded shape of one NRTM/RIB object: a
// route/route6 (Prefix + Origin populated) or an as-set (Name + Members
// populated). This is the "object" half of the NRTM (command, serial,
// object) contract a real NRTM client decodes onto the wire.
type RouteOrSetObject struct {
	Source string
	Kind   ObjectKind

	// route / route6
	Prefix netip.Prefix
	Origin Origin

	// as-set
	Name    string
	Members []string
}
