package taxonomy

import "github.com/eportlabs/eport-data-api/internal/domain/shared"

// JobDescription is the scalar JD row: the core record of the
// job-description entity family.
type JobDescription struct {
	JDID            shared.JDID `json:"jd_id"`
	JobTitle        string      `json:"job_title"`
	CompanyName     string      `json:"company_name,omitempty"`
	CompanyIndustry string      `json:"company_industry,omitempty"`
	Description     string      `json:"job_description,omitempty"`
}

// Responsibility is one responsibility line of a job description. Sequence
// orders responsibilities as they appear in the posting.
type Responsibility struct {
	Text     string `json:"responsibility_text"`
	Sequence int    `json:"responsibility_index"`
}

// JDTaxonomy is the hydrated job description: the JD row plus its required
// skills (unordered) and responsibilities sorted by sequence ascending.
type JDTaxonomy struct {
	JobDescription

	RequiredSkills   []RequiredSkill  `json:"job_required_skills"`
	Responsibilities []Responsibility `json:"job_responsibilities"`
}

// NewJDTaxonomy returns a taxonomy for the given job description with
// empty child collections.
func NewJDTaxonomy(jd JobDescription) *JDTaxonomy {
	return &JDTaxonomy{
		JobDescription:   jd,
		RequiredSkills:   []RequiredSkill{},
		Responsibilities: []Responsibility{},
	}
}
