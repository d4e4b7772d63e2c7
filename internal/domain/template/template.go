// Package template contains the read model for rendering-template metadata.
package template

import (
	"context"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
)

// Metadata is the flat template record: layout identity plus rendering
// parameters. Templates have no child collections, so the core and the
// hydrated view coincide.
type Metadata struct {
	TemplateID         shared.TemplateID `json:"template_id"`
	Name               string            `json:"name"`
	Style              string            `json:"style,omitempty"`
	FontFamily         string            `json:"font_family,omitempty"`
	ColorScheme        string            `json:"color_scheme,omitempty"`
	MaxCharsPerSection int               `json:"max_chars_per_section,omitempty"`
	MaxPages           int               `json:"max_pages,omitempty"`
}

// Repository exposes the read operations for the template entity family.
//
// GetHydrated exists for interface symmetry with the other families; it
// returns the same flat record as GetCore and the same not-found outcome.
// A missing template is shared.ErrNotFound, never an empty Metadata.
type Repository interface {
	GetCore(ctx context.Context, id shared.TemplateID) (*Metadata, error)
	GetHydrated(ctx context.Context, id shared.TemplateID) (*Metadata, error)
}
