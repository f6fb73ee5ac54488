// Package httpapi exposes the JSON query endpoints (delegating to
// pkg/report, which in turn delegates to pkg/fanout) plus a /status
// health endpoint.
package httpapi

import (
	"errors"
	"net/http"
	"net/netip"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"irrexplorer/pkg/fanout"
	"irrexplorer/pkg/model"
	"irrexplorer/pkg/report"
	"irrexplorer/pkg/worker"
)

// Handler wires the report engine and registry into gin handlers.
type Handler struct {
	engine   *report.Engine
	registry *worker.Registry
	log      zerolog.Logger
}

// NewHandler builds an httpapi Handler.
func NewHandler(engine *report.Engine, registry *worker.Registry, log zerolog.Logger) *Handler {
	return &Handler{engine: engine, registry: registry, log: log}
}

// Status handles GET /status: a per-worker readiness/health snapshot
// alongside the registry's query endpoints.
func (h *Handler) Status(c *gin.Context) {
	statuses := h.registry.Statuses(c.Request.Context())
	out := make([]statusJSON, len(statuses))
	for i, s := range statuses {
		out[i] = statusJSON{
			Name:       s.Name,
			Ready:      s.Ready,
			LastSerial: s.LastSerial,
			LastSync:   s.LastSync,
		}
		if s.LastError != nil {
			out[i].LastError = s.LastError.Error()
		}
	}
	c.JSON(http.StatusOK, out)
}

// AutNum handles GET /autnum/:asn — the inverse-ASN lookup. It fans out
// to every configured IRR DB worker and joins the per-DB prefix lists.
func (h *Handler) AutNum(c *gin.Context) {
	asnParam := c.Param("asn")
	asn, err := strconv.ParseUint(asnParam, 10, 32)
	if err != nil {
		c.String(http.StatusBadRequest, "bad input: %q is not a valid ASN", asnParam)
		return
	}

	results := fanout.IRRQuery(c.Request.Context(), h.registry.DBs(), model.InverseASN, model.Origin(asn), h.log)

	out := make(map[string][]netip.Prefix)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if len(r.Result.Prefixes) > 0 {
			out[r.Source] = r.Result.Prefixes
		}
	}
	c.JSON(http.StatusOK, out)
}

// PrefixJSON handles GET /prefix_json/*prefix — the non-exact (aggregate
// + specifics) cross-registry report.
func (h *Handler) PrefixJSON(c *gin.Context) {
	h.prefixReport(c, false)
}

// ExactPrefixJSON handles GET /exact_prefix_json/*prefix — the exact
// scope cross-registry report.
func (h *Handler) ExactPrefixJSON(c *gin.Context) {
	h.prefixReport(c, true)
}

func (h *Handler) prefixReport(c *gin.Context, exact bool) {
	raw := trimPrefixParam(c.Param("prefix"))
	prefix, err := netip.ParsePrefix(raw)
	if err != nil {
		c.String(http.StatusBadRequest, "bad input: %q is not a valid prefix: %v", raw, err)
		return
	}

	rep, err := h.engine.PrefixReport(c.Request.Context(), prefix, exact)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSON(rep))
}

func (h *Handler) writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrBadInput), errors.Is(err, model.ErrNoPrefix):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrWorkerUnready):
		c.String(http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("prefix report failed")
		c.String(http.StatusInternalServerError, "internal error")
	}
}

// trimPrefixParam strips the leading slash gin's *prefix wildcard param
// always carries (the route is registered as "/prefix_json/*prefix").
func trimPrefixParam(p string) string {
	if len(p) > 0 && p[0] == '/' {
		return p[1:]
	}
	return p
}
