package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/db8labs/db8-agent/internal/build"
)

type serviceHandler struct {
	db    Pinger
	cache Pinger
}

// Status is the liveness banner.
//
// @Summary      Service banner
// @Tags         Service
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       / [get]
func (h *serviceHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, StatusResponse{Status: "DB8 Agent Online", Version: build.Version})
}

// Health pings the database and, when configured, the caption cache. A cache
// outage is reported but does not make the service unhealthy.
//
// @Summary      Health check
// @Tags         Service
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *serviceHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK
	if h.db == nil {
		resp.Status, resp.Database = "unavailable", "not configured"
		status = http.StatusServiceUnavailable
	} else if err := h.db.PingContext(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("database ping failed")
		resp.Status, resp.Database = "unavailable", "unreachable"
		status = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache.PingContext(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("cache ping failed")
			resp.Cache = "unreachable"
		}
	}
	writeJSON(w, r, status, resp)
}
