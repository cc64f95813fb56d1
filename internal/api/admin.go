package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/db8labs/db8-agent/internal/listing"
)

type adminHandler struct {
	listings *listing.Service
}

func registerAdminRoutes(r chi.Router, listings *listing.Service) {
	h := &adminHandler{listings: listings}
	r.Post("/admin/regenerate-failed", h.RegenerateFailed)
}

// RegenerateFailed retries generation for every listing in status "error".
//
// @Summary      Retry failed generations
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  BatchResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/regenerate-failed [post]
func (h *adminHandler) RegenerateFailed(w http.ResponseWriter, r *http.Request) {
	res, err := h.listings.RegenerateFailed(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
