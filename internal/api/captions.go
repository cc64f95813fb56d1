package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/db8labs/db8-agent/internal/caption"
	"github.com/db8labs/db8-agent/internal/listing"
)

type captionsHandler struct {
	listings *listing.Service
}

func registerCaptionRoutes(r chi.Router, listings *listing.Service) {
	h := &captionsHandler{listings: listings}
	r.Post("/captions/preview", h.Preview)
}

// Preview generates a caption for ad-hoc attributes without storing
// anything. Generation failures are reported in generation_error alongside
// the prompt that was sent.
//
// @Summary      Preview a caption
// @Tags         Captions
// @Accept       json
// @Produce      json
// @Param        body  body      PreviewRequest  true  "Listing attributes"
// @Success      200   {object}  PreviewResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /captions/preview [post]
func (h *captionsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := render.Decode(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.PropertyType == "" || req.PropertyStandard == "" {
		writeError(w, r, http.StatusBadRequest, "property_type and property_standard are required", "VALIDATION_ERROR")
		return
	}

	p, err := h.listings.Preview(r.Context(), req.attributes())
	resp := PreviewResponse{
		Tag:     string(p.Tag),
		Prompt:  p.Prompt,
		Caption: p.Caption,
		Cached:  p.Cached,
	}
	if err != nil {
		resp.GenerationError = caption.Kind(err)
	} else {
		resp.CaptionFinal = p.Caption.Display()
	}
	writeJSON(w, r, http.StatusOK, resp)
}
