// Package taxonomy contains the read models for role and job-description
// taxonomies: the curated skill/responsibility structures the generation
// pipeline overlays onto student profiles.
package taxonomy

import "github.com/eportlabs/eport-data-api/internal/domain/shared"

// Role is the scalar role row: the core record of the role entity family.
type Role struct {
	RoleID      shared.RoleID `json:"role_id"`
	Title       string        `json:"role_title"`
	Description string        `json:"role_description,omitempty"`
}

// RequiredSkill is one skill requirement attached to a role or a job
// description. Rank orders skills within a role taxonomy; for JD skills it
// is zero and carries no meaning.
type RequiredSkill struct {
	SkillID          string `json:"skill_id,omitempty"`
	SkillName        string `json:"skill_name"`
	ProficiencyLevel string `json:"proficiency_level,omitempty"`
	Rank             int    `json:"rank,omitempty"`
}

// RoleTaxonomy is the hydrated role: the role row plus its required skills
// sorted by rank ascending.
type RoleTaxonomy struct {
	Role

	RequiredSkills []RequiredSkill `json:"role_required_skills"`
}

// NewRoleTaxonomy returns a taxonomy for the given role with an empty
// skill collection.
func NewRoleTaxonomy(role Role) *RoleTaxonomy {
	return &RoleTaxonomy{
		Role:           role,
		RequiredSkills: []RequiredSkill{},
	}
}
