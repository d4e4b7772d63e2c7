package student

import "github.com/eportlabs/eport-data-api/internal/domain/shared"

// ══════════════════════════════════════════════════════════════════════════════
// CORE RECORD
// ══════════════════════════════════════════════════════════════════════════════

// StudentCore is the scalar portion of a profile: identity, name, and
// contact fields from the student table, no child collections. GetCore
// returning this (or not-found) is the authoritative existence signal.
type StudentCore struct {
	UserID    shared.UserID `json:"user_id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	City      string        `json:"city,omitempty"`
	Country   string        `json:"country,omitempty"`
	Headline  string        `json:"headline,omitempty"`
	Summary   string        `json:"summary,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CHILD RECORDS
// ══════════════════════════════════════════════════════════════════════════════

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

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// StudentProfile is the fully hydrated aggregate: the core scalars plus
// nine child collections. Collections are always non-nil; education and
// experience keep the warehouse ordering (most recent first), the rest are
// unordered.
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

// NewStudentProfile returns a profile for the given core row with every
// collection initialized empty.
func NewStudentProfile(core StudentCore) *StudentProfile {
	return &StudentProfile{
		StudentCore:      core,
		Education:        []Education{},
		Experience:       []Experience{},
		Skills:           []Skill{},
		Awards:           []Award{},
		Extracurriculars: []Extracurricular{},
		Publications:     []Publication{},
		Training:         []Training{},
		References:       []Reference{},
		AdditionalInfo:   []AdditionalInfo{},
	}
}

// CollectionSizes reports the length of each child collection keyed by
// relation name. Used by logging and tests.
func (p *StudentProfile) CollectionSizes() map[string]int {
	return map[string]int{
		"education":        len(p.Education),
		"experience":       len(p.Experience),
		"skills":           len(p.Skills),
		"awards":           len(p.Awards),
		"extracurriculars": len(p.Extracurriculars),
		"publications":     len(p.Publications),
		"training":         len(p.Training),
		"references":       len(p.References),
		"additional_info":  len(p.AdditionalInfo),
	}
}
