package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/db8labs/db8-agent/internal/auth"
	"github.com/db8labs/db8-agent/internal/caption"
	"github.com/db8labs/db8-agent/internal/listing"
	"github.com/db8labs/db8-agent/internal/store"
)

// propertiesHandler provides REST handlers for listings.
type propertiesHandler struct {
	props    store.PropertyStoreIface
	listings *listing.Service
}

func registerPropertyRoutes(r chi.Router, props store.PropertyStoreIface, listings *listing.Service) {
	h := &propertiesHandler{props: props, listings: listings}
	r.Get("/properties", h.List)
	r.Post("/properties", h.Create)
	r.Get("/properties/{id}", h.Get)
	r.Patch("/properties/{id}", h.Update)
	r.Delete("/properties/{id}", h.Delete)
	r.Post("/properties/{id}/regenerate", h.Regenerate)
	r.Post("/properties/{id}/publish", h.Publish)
}

// owned loads a listing and hides listings of other accounts behind
// ErrNotFound.
func (h *propertiesHandler) owned(ctx context.Context, id string) (*store.Property, error) {
	p, err := h.props.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u := auth.UserFromContext(ctx); u == nil || p.OwnerID != u.ID {
		return nil, store.ErrNotFound
	}
	return p, nil
}

// List returns the caller's listings, newest first.
//
// @Summary      List listings
// @Tags         Properties
// @Produce      json
// @Param        status  query     string  false  "Filter by status (pending, error, approved, rejected)"
// @Success      200     {object}  PropertyListResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /properties [get]
func (h *propertiesHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" {
		if err := store.ValidateStatus(status); err != nil {
			writeStoreError(w, r, err)
			return
		}
	}

	props, err := h.props.List(r.Context(), store.PropertyFilter{OwnerID: user.ID, Status: status})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	resp := PropertyListResponse{Properties: make([]PropertyResponse, 0, len(props))}
	for _, p := range props {
		resp.Properties = append(resp.Properties, toPropertyResponse(p))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Create stores a new listing and generates its caption. A failed generation
// does not fail the request: the listing is stored with status "error" and
// the original description as its final caption.
//
// @Summary      Create a listing
// @Tags         Properties
// @Accept       json
// @Produce      json
// @Param        body  body      CreatePropertyRequest  true  "Listing to create"
// @Success      201   {object}  PropertyResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /properties [post]
func (h *propertiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req CreatePropertyRequest
	if err := render.Decode(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg, "VALIDATION_ERROR")
		return
	}

	res, err := h.listings.Create(r.Context(), user.ID, req.input())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toPropertyResponse(res.Property))
}

// Get returns a single listing.
//
// @Summary      Get a listing
// @Tags         Properties
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  PropertyResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /properties/{id} [get]
func (h *propertiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPropertyResponse(p))
}

// Update edits a listing. Status may be set to anything but "approved",
// which only Publish grants.
//
// @Summary      Update a listing
// @Tags         Properties
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Listing ID"
// @Param        body  body      UpdatePropertyRequest  true  "Fields to change"
// @Success      200   {object}  PropertyResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /properties/{id} [patch]
func (h *propertiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.owned(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	var req UpdatePropertyRequest
	if err := render.Decode(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg, "VALIDATION_ERROR")
		return
	}

	p, err := h.props.Update(r.Context(), id, req.patch())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPropertyResponse(p))
}

// Delete removes a listing.
//
// @Summary      Delete a listing
// @Tags         Properties
// @Param        id  path  string  true  "Listing ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /properties/{id} [delete]
func (h *propertiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.owned(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.props.Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Regenerate produces a fresh caption for a listing, skipping the cache. On
// failure the listing keeps its previous caption and is marked "error".
//
// @Summary      Regenerate a caption
// @Tags         Properties
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  PropertyResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /properties/{id}/regenerate [post]
func (h *propertiesHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.owned(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	res, err := h.listings.Regenerate(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, toPropertyResponse(res.Property))
	case errors.Is(err, caption.ErrGenerationDisabled):
		writeError(w, r, http.StatusServiceUnavailable, err.Error(), "GENERATION_DISABLED")
	case res == nil:
		writeStoreError(w, r, err)
	default:
		writeError(w, r, http.StatusBadGateway, "caption generation failed", strings.ToUpper(res.GenerationError))
	}
}

// Publish approves a listing and charges one credit unless the account is
// on the pro plan.
//
// @Summary      Publish a listing
// @Tags         Properties
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  PublishResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /properties/{id}/publish [post]
func (h *propertiesHandler) Publish(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	res, err := h.listings.Publish(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, PublishResponse{
		Status:           res.Property.Status,
		CreditsRemaining: res.User.CreditsRemaining,
		Plan:             res.User.Plan,
		SocialPostID:     res.SocialPostID,
		SocialError:      res.SocialError,
	})
}
