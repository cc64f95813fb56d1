package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/db8labs/db8-agent/internal/caption"
	"github.com/db8labs/db8-agent/internal/listing"
	"github.com/db8labs/db8-agent/internal/store"
)

// --- Property types ---

// CreatePropertyRequest is the request body for POST /properties.
type CreatePropertyRequest struct {
	Title            string   `json:"title,omitempty"`
	Description      string   `json:"description,omitempty"`
	Images           []string `json:"images"`
	PropertyType     string   `json:"property_type"`
	PropertyStandard string   `json:"property_standard"`
	City             string   `json:"city"`
	Neighborhood     string   `json:"neighborhood"`
	InvestmentValue  string   `json:"investment_value"`
	BuiltAreaM2      float64  `json:"built_area_m2"`
	Highlights       string   `json:"highlights,omitempty"`
}

// validate returns the first problem with the request, or "".
func (r *CreatePropertyRequest) validate() string {
	if len(r.Images) == 0 {
		return "images must contain at least one URL"
	}
	for _, img := range r.Images {
		if strings.TrimSpace(img) == "" {
			return "images must not contain empty URLs"
		}
	}
	required := []struct{ name, value string }{
		{"property_type", r.PropertyType},
		{"property_standard", r.PropertyStandard},
		{"city", r.City},
		{"neighborhood", r.Neighborhood},
		{"investment_value", r.InvestmentValue},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return f.name + " is required"
		}
	}
	if r.BuiltAreaM2 <= 0 {
		return "built_area_m2 must be greater than zero"
	}
	return ""
}

func (r *CreatePropertyRequest) input() listing.Input {
	return listing.Input{
		Title:            r.Title,
		Description:      r.Description,
		Images:           r.Images,
		PropertyType:     r.PropertyType,
		PropertyStandard: r.PropertyStandard,
		City:             r.City,
		Neighborhood:     r.Neighborhood,
		InvestmentValue:  r.InvestmentValue,
		BuiltAreaM2:      r.BuiltAreaM2,
		Highlights:       r.Highlights,
	}
}

// UpdatePropertyRequest is the request body for PATCH /properties/{id}.
// Omitted fields are left unchanged.
type UpdatePropertyRequest struct {
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Images           *[]string `json:"images,omitempty"`
	PropertyType     *string   `json:"property_type,omitempty"`
	PropertyStandard *string   `json:"property_standard,omitempty"`
	City             *string   `json:"city,omitempty"`
	Neighborhood     *string   `json:"neighborhood,omitempty"`
	InvestmentValue  *string   `json:"investment_value,omitempty"`
	BuiltAreaM2      *float64  `json:"built_area_m2,omitempty"`
	Highlights       *string   `json:"highlights,omitempty"`
	CaptionFinal     *string   `json:"caption_final,omitempty"`
	Status           *string   `json:"status,omitempty"`
}

func (r *UpdatePropertyRequest) validate() string {
	if r.Images != nil && len(*r.Images) == 0 {
		return "images must contain at least one URL"
	}
	if r.BuiltAreaM2 != nil && *r.BuiltAreaM2 <= 0 {
		return "built_area_m2 must be greater than zero"
	}
	return ""
}

func (r *UpdatePropertyRequest) patch() store.PropertyPatch {
	return store.PropertyPatch{
		Title:            r.Title,
		Description:      r.Description,
		Images:           r.Images,
		PropertyType:     r.PropertyType,
		PropertyStandard: r.PropertyStandard,
		City:             r.City,
		Neighborhood:     r.Neighborhood,
		InvestmentValue:  r.InvestmentValue,
		BuiltAreaM2:      r.BuiltAreaM2,
		Highlights:       r.Highlights,
		CaptionFinal:     r.CaptionFinal,
		Status:           r.Status,
	}
}

// PropertyResponse is the JSON representation of a listing.
type PropertyResponse struct {
	ID               string                    `json:"id"`
	Title            string                    `json:"title"`
	Description      string                    `json:"description"`
	Images           []string                  `json:"images"`
	PropertyType     string                    `json:"property_type"`
	PropertyStandard string                    `json:"property_standard"`
	City             string                    `json:"city"`
	Neighborhood     string                    `json:"neighborhood"`
	InvestmentValue  string                    `json:"investment_value"`
	BuiltAreaM2      float64                   `json:"built_area_m2"`
	Highlights       string                    `json:"highlights"`
	CaptionAI        *caption.GeneratedCaption `json:"caption_ai"`
	CaptionFinal     string                    `json:"caption_final"`
	TemplateTag      string                    `json:"template_tag"`
	Status           string                    `json:"status"`
	GenerationError  string                    `json:"generation_error,omitempty"`
	SocialPostID     string                    `json:"social_post_id,omitempty"`
	PublishedAt      *time.Time                `json:"published_at"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

func toPropertyResponse(p *store.Property) PropertyResponse {
	resp := PropertyResponse{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		Images:           []string(p.Images),
		PropertyType:     p.PropertyType,
		PropertyStandard: p.PropertyStandard,
		City:             p.City,
		Neighborhood:     p.Neighborhood,
		InvestmentValue:  p.InvestmentValue,
		BuiltAreaM2:      p.BuiltAreaM2,
		Highlights:       p.Highlights,
		CaptionFinal:     p.CaptionFinal,
		TemplateTag:      p.TemplateTag,
		Status:           p.Status,
		GenerationError:  p.GenerationError,
		SocialPostID:     p.SocialPostID,
		PublishedAt:      p.PublishedAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if p.CaptionAI != nil {
		var g caption.GeneratedCaption
		if err := json.Unmarshal([]byte(*p.CaptionAI), &g); err == nil {
			resp.CaptionAI = &g
		}
	}
	return resp
}

// PropertyListResponse is the response for GET /properties.
type PropertyListResponse struct {
	Properties []PropertyResponse `json:"properties"`
}

// PublishResponse is the response for POST /properties/{id}/publish.
type PublishResponse struct {
	Status           string `json:"status"`
	CreditsRemaining int    `json:"credits_remaining"`
	Plan             string `json:"plan"`
	SocialPostID     string `json:"social_post_id,omitempty"`
	SocialError      string `json:"social_error,omitempty"`
}

// --- Caption types ---

// PreviewRequest is the request body for POST /captions/preview.
type PreviewRequest struct {
	PropertyType     string  `json:"property_type"`
	PropertyStandard string  `json:"property_standard"`
	City             string  `json:"city"`
	Neighborhood     string  `json:"neighborhood"`
	InvestmentValue  string  `json:"investment_value"`
	BuiltAreaM2      float64 `json:"built_area_m2"`
	Highlights       string  `json:"highlights,omitempty"`
	Description      string  `json:"description,omitempty"`
}

func (r *PreviewRequest) attributes() caption.Attributes {
	return caption.Attributes{
		PropertyType:        r.PropertyType,
		PropertyStandard:    r.PropertyStandard,
		City:                r.City,
		Neighborhood:        r.Neighborhood,
		InvestmentValue:     r.InvestmentValue,
		BuiltAreaM2:         r.BuiltAreaM2,
		Highlights:          r.Highlights,
		OriginalDescription: r.Description,
	}
}

// PreviewResponse is the response for POST /captions/preview.
type PreviewResponse struct {
	Tag             string                    `json:"template_tag"`
	Prompt          string                    `json:"prompt"`
	Caption         *caption.GeneratedCaption `json:"caption"`
	CaptionFinal    string                    `json:"caption_final,omitempty"`
	Cached          bool                      `json:"cached"`
	GenerationError string                    `json:"generation_error,omitempty"`
}

// --- Account and service types ---

// AccountResponse is the response for GET /me.
type AccountResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Plan             string    `json:"plan"`
	CreditsRemaining int       `json:"credits_remaining"`
	CreatedAt        time.Time `json:"created_at"`
}

// StatusResponse is the response for GET /.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
}

// BatchResponse is the response for POST /admin/regenerate-failed.
type BatchResponse = listing.BatchResult
