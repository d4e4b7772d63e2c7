// Package client implements a Go client for the e-portfolio data API.
// This package is what generation-pipeline services import to fetch
// hydrated profiles, taxonomies, templates, and whole generation bundles.
package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE WRAPPERS
// ══════════════════════════════════════════════════════════════════════════════

// Envelope is the standard response wrapper of the data API. Data is kept
// raw so each endpoint decodes its own payload shape.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *APIError       `json:"error,omitempty"`
	Meta      *Meta           `json:"meta,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// APIError is an error payload returned by the data API. StatusCode and
// RequestID are filled from the transport, not the JSON body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	StatusCode int    `json:"-"`
	RequestID  string `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %s (status %d): %s: %s", e.Code, e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT DTOs
// ══════════════════════════════════════════════════════════════════════════════

// StudentCore is the scalar student record without child collections.
type StudentCore struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	Headline  string `json:"headline,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

// Education is one entry of the education history.
type Education struct {
	Institution  string  `json:"institution"`
	Degree       string  `json:"degree"`
	FieldOfStudy string  `json:"field_of_study,omitempty"`
	StartYear    int     `json:"start_year,omitempty"`
	EndYear      int     `json:"end_year,omitempty"`
	GPA          float64 `json:"gpa,omitempty"`
}

// Experience is one entry of the work history.
type Experience struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	StartYear   int    `json:"start_year,omitempty"`
	EndYear     int    `json:"end_year,omitempty"`
	Description string `json:"description,omitempty"`
}

// Skill is a single declared skill.
type Skill struct {
	SkillName   string `json:"skill_name"`
	Proficiency string `json:"proficiency,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Award is a single award or honor.
type Award struct {
	AwardName   string `json:"award_name"`
	Issuer      string `json:"issuer,omitempty"`
	Year        int    `json:"year,omitempty"`
	Description string `json:"description,omitempty"`
}

// Extracurricular is a single out-of-curriculum activity.
type Extracurricular struct {
	ActivityName string `json:"activity_name"`
	Organization string `json:"organization,omitempty"`
	Role         string `json:"role,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Publication is a single publication entry.
type Publication struct {
	Title string `json:"title"`
	Venue string `json:"venue,omitempty"`
	Year  int    `json:"year,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Training is a single completed course or certification.
type Training struct {
	CourseName string `json:"course_name"`
	Provider   string `json:"provider,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// Reference is a single professional reference.
type Reference struct {
	RefereeName  string `json:"referee_name"`
	RefereeTitle string `json:"referee_title,omitempty"`
	Company      string `json:"company,omitempty"`
	Email        string `json:"email,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// AdditionalInfo is a free-form typed note attached to the profile.
type AdditionalInfo struct {
	InfoType string `json:"info_type"`
	Content  string `json:"content"`
}

// StudentProfile is the hydrated profile: core scalars plus nine child
// collections. The API guarantees collections are arrays, never null.
type StudentProfile struct {
	StudentCore

	Education        []Education       `json:"education"`
	Experience       []Experience      `json:"experience"`
	Skills           []Skill           `json:"skills"`
	Awards           []Award           `json:"awards"`
	Extracurriculars []Extracurricular `json:"extracurriculars"`
	Publications     []Publication     `json:"publications"`
	Training         []Training        `json:"training"`
	References       []Reference       `json:"references"`
	AdditionalInfo   []AdditionalInfo  `json:"additional_info"`
}

// FullProfile is the payload of GET /v1/students/{id}/full-profile.
type FullProfile struct {
	UserID         string          `json:"user_id"`
	StudentProfile *StudentProfile `json:"student_profile"`
}

// ══════════════════════════════════════════════════════════════════════════════
// TAXONOMY DTOs
// ══════════════════════════════════════════════════════════════════════════════

// Role is the scalar role record.
type Role struct {
	RoleID      string `json:"role_id"`
	Title       string `json:"role_title"`
	Description string `json:"role_description,omitempty"`
}

// RequiredSkill is one skill requirement of a role or a job description.
type RequiredSkill struct {
	SkillID          string `json:"skill_id,omitempty"`
	SkillName        string `json:"skill_name"`
	ProficiencyLevel string `json:"proficiency_level,omitempty"`
	Rank             int    `json:"rank,omitempty"`
}

// RoleTaxonomy is a role with its required skills, ordered by rank.
type RoleTaxonomy struct {
	Role

	RequiredSkills []RequiredSkill `json:"role_required_skills"`
}

// roleTaxonomyPayload is the wire shape of GET /v1/roles/{id}/taxonomy,
// which nests the role beside the skills instead of inlining it.
type roleTaxonomyPayload struct {
	Role           Role            `json:"role"`
	RequiredSkills []RequiredSkill `json:"required_skills"`
}

// JobDescription is the scalar job description record.
type JobDescription struct {
	JDID            string `json:"jd_id"`
	JobTitle        string `json:"job_title"`
	CompanyName     string `json:"company_name,omitempty"`
	CompanyIndustry string `json:"company_industry,omitempty"`
	Description     string `json:"job_description,omitempty"`
}

// Responsibility is one responsibility line of a job description.
type Responsibility struct {
	Text     string `json:"responsibility_text"`
	Sequence int    `json:"responsibility_index"`
}

// JDTaxonomy is a job description with its required skills and ordered
// responsibilities.
type JDTaxonomy struct {
	JobDescription

	RequiredSkills   []RequiredSkill  `json:"job_required_skills"`
	Responsibilities []Responsibility `json:"job_responsibilities"`
}

// EnrichedJD is the payload of GET /v1/jds/{id}/enriched: the JD taxonomy
// with an optional role overlay. RoleTaxonomy is nil when the overlay was
// not requested or could not be resolved.
type EnrichedJD struct {
	JDTaxonomy     *JDTaxonomy   `json:"jd_taxonomy"`
	RoleTaxonomy   *RoleTaxonomy `json:"role_taxonomy,omitempty"`
	OverlayApplied bool          `json:"overlay_applied"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE AND BUNDLE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// TemplateInfo carries rendering limits and styling for one template.
type TemplateInfo struct {
	TemplateID         string `json:"template_id"`
	Name               string `json:"name"`
	Style              string `json:"style,omitempty"`
	FontFamily         string `json:"font_family,omitempty"`
	ColorScheme        string `json:"color_scheme,omitempty"`
	MaxCharsPerSection int    `json:"max_chars_per_section,omitempty"`
	MaxPages           int    `json:"max_pages,omitempty"`
}

// GenerationBundle is the payload of GET /v1/bundles/generation: the four
// inputs of one CV generation run.
type GenerationBundle struct {
	UserID         string          `json:"user_id"`
	StudentProfile *StudentProfile `json:"student_profile"`
	RoleTaxonomy   *RoleTaxonomy   `json:"role_taxonomy"`
	JDTaxonomy     *JDTaxonomy     `json:"jd_taxonomy"`
	TemplateInfo   *TemplateInfo   `json:"template_info"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// BundleRequest addresses the four legs of a generation bundle.
type BundleRequest struct {
	UserID     string
	RoleID     string
	JDID       string
	TemplateID string
}

// Validate checks that every leg is addressed.
func (r BundleRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if r.RoleID == "" {
		return fmt.Errorf("role_id is required")
	}
	if r.JDID == "" {
		return fmt.Errorf("jd_id is required")
	}
	if r.TemplateID == "" {
		return fmt.Errorf("template_id is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN DTOs
// ══════════════════════════════════════════════════════════════════════════════

// RegistrySnapshot is the schema registry state returned by the refresh
// endpoint.
type RegistrySnapshot struct {
	Schema         string    `json:"schema"`
	LastRefreshed  time.Time `json:"last_refreshed"`
	RelationTables int       `json:"relation_tables"`
	AbsentTables   []string  `json:"absent_tables"`
}

// SchemaRefreshResult is the payload of POST /v1/admin/schema/refresh.
type SchemaRefreshResult struct {
	Job         string            `json:"job"`
	Success     bool              `json:"success"`
	DurationMS  int64             `json:"duration_ms"`
	CompletedAt time.Time         `json:"completed_at"`
	Registry    *RegistrySnapshot `json:"registry,omitempty"`
}

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
	Version string `json:"version,omitempty"`
}
