package warehouse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/student"
	"github.com/eportlabs/eport-data-api/internal/domain/taxonomy"
	"github.com/eportlabs/eport-data-api/internal/domain/template"
)

// ══════════════════════════════════════════════════════════════════════════════
// HYDRATORS
// ══════════════════════════════════════════════════════════════════════════════
//
// Hydrators turn one aggregated warehouse row into a domain object. They are
// pure: no I/O, no clocks, no globals. A NULL or empty relation becomes an
// empty collection, never nil; a relation whose value is not an array of
// objects is a schema mismatch. Ordered collections are re-sorted stably on
// their sequence field, so the ordering invariant holds even if the
// statement's ORDER BY was lost upstream.

// ─────────────────────────────────────────────────────────────────────────────
// Student
// ─────────────────────────────────────────────────────────────────────────────

// HydrateStudentCore maps a core student row.
func HydrateStudentCore(rec Record) (*student.StudentCore, error) {
	if rec == nil {
		return nil, hydrateErr("student record is empty")
	}

	core := student.StudentCore{
		UserID:    shared.UserID(asString(rec["user_id"])),
		FirstName: asString(rec["first_name"]),
		LastName:  asString(rec["last_name"]),
		Email:     asString(rec["email"]),
		Phone:     asString(rec["phone"]),
		City:      asString(rec["city"]),
		Country:   asString(rec["country"]),
		Headline:  asString(rec["headline"]),
		Summary:   asString(rec["summary"]),
	}
	if core.UserID == "" {
		return nil, hydrateErr("student row has no user_id")
	}

	return &core, nil
}

// HydrateStudentProfile maps a fully aggregated student row: the core
// scalars plus all nine child collections.
func HydrateStudentProfile(rec Record) (*student.StudentProfile, error) {
	core, err := HydrateStudentCore(rec)
	if err != nil {
		return nil, err
	}

	p := student.NewStudentProfile(*core)

	rows, err := relationRows(rec, "education")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.Education = append(p.Education, student.Education{
			Institution:  asString(m["institution"]),
			Degree:       asString(m["degree"]),
			FieldOfStudy: asString(m["field_of_study"]),
			StartYear:    asInt(m["start_year"]),
			EndYear:      asInt(m["end_year"]),
			GPA:          asFloat(m["gpa"]),
		})
	}
	sort.SliceStable(p.Education, func(i, j int) bool {
		if p.Education[i].StartYear != p.Education[j].StartYear {
			return p.Education[i].StartYear > p.Education[j].StartYear
		}
		return p.Education[i].EndYear > p.Education[j].EndYear
	})

	rows, err = relationRows(rec, "experience")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.Experience = append(p.Experience, student.Experience{
			Company:     asString(m["company"]),
			Title:       asString(m["title"]),
			Location:    asString(m["location"]),
			StartYear:   asInt(m["start_year"]),
			EndYear:     asInt(m["end_year"]),
			Description: asString(m["description"]),
		})
	}
	sort.SliceStable(p.Experience, func(i, j int) bool {
		if p.Experience[i].StartYear != p.Experience[j].StartYear {
			return p.Experience[i].StartYear > p.Experience[j].StartYear
		}
		return p.Experience[i].EndYear > p.Experience[j].EndYear
	})

	rows, err = relationRows(rec, "skills")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.Skills = append(p.Skills, student.Skill{
			SkillName:   asString(m["skill_name"]),
			Proficiency: asString(m["proficiency"]),
			Category:    asString(m["category"]),
		})
	}

	rows, err = relationRows(rec, "awards")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.Awards = append(p.Awards, student.Award{
			AwardName:   asString(m["award_name"]),
			Issuer:      asString(m["issuer"]),
			Year:        asInt(m["year"]),
			Description: asString(m["description"]),
		})
	}

	rows, err = relationRows(rec, "extracurriculars")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.Extracurriculars = append(p.Extracurriculars, student.Extracurricular{
			ActivityName: asString(m["activity_name"]),
			Organization: asString(m["organization"]),
			Role:         asString(m["role"]),
			Description:  asString(m["description"]),
		})
	}

	rows, err = relationRows(rec, "publications")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.Publications = append(p.Publications, student.Publication{
			Title: asString(m["title"]),
			Venue: asString(m["venue"]),
			Year:  asInt(m["year"]),
			URL:   asString(m["url"]),
		})
	}

	rows, err = relationRows(rec, "training")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.Training = append(p.Training, student.Training{
			CourseName: asString(m["course_name"]),
			Provider:   asString(m["provider"]),
			Year:       asInt(m["year"]),
		})
	}

	rows, err = relationRows(rec, "references")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.References = append(p.References, student.Reference{
			RefereeName:  asString(m["referee_name"]),
			RefereeTitle: asString(m["referee_title"]),
			Company:      asString(m["company"]),
			Email:        asString(m["email"]),
			Relationship: asString(m["relationship"]),
		})
	}

	rows, err = relationRows(rec, "additional_info")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		p.AdditionalInfo = append(p.AdditionalInfo, student.AdditionalInfo{
			InfoType: asString(m["info_type"]),
			Content:  asString(m["content"]),
		})
	}

	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Role taxonomy
// ─────────────────────────────────────────────────────────────────────────────

// HydrateRole maps a core role row.
func HydrateRole(rec Record) (*taxonomy.Role, error) {
	if rec == nil {
		return nil, hydrateErr("role record is empty")
	}

	role := taxonomy.Role{
		RoleID:      shared.RoleID(asString(rec["role_id"])),
		Title:       asString(rec["role_title"]),
		Description: asString(rec["role_description"]),
	}
	if role.RoleID == "" {
		return nil, hydrateErr("role row has no role_id")
	}

	return &role, nil
}

// HydrateRoleTaxonomy maps an aggregated role row. Required skills come
// out sorted by rank ascending.
func HydrateRoleTaxonomy(rec Record) (*taxonomy.RoleTaxonomy, error) {
	role, err := HydrateRole(rec)
	if err != nil {
		return nil, err
	}

	t := taxonomy.NewRoleTaxonomy(*role)

	rows, err := relationRows(rec, "role_required_skills")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		t.RequiredSkills = append(t.RequiredSkills, taxonomy.RequiredSkill{
			SkillID:          asString(m["skill_id"]),
			SkillName:        asString(m["skill_name"]),
			ProficiencyLevel: asString(m["proficiency_level"]),
			Rank:             asInt(m["skill_rank"]),
		})
	}
	sort.SliceStable(t.RequiredSkills, func(i, j int) bool {
		return t.RequiredSkills[i].Rank < t.RequiredSkills[j].Rank
	})

	return t, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Job description taxonomy
// ─────────────────────────────────────────────────────────────────────────────

// HydrateJobDescription maps a core JD row.
func HydrateJobDescription(rec Record) (*taxonomy.JobDescription, error) {
	if rec == nil {
		return nil, hydrateErr("job description record is empty")
	}

	jd := taxonomy.JobDescription{
		JDID:            shared.JDID(asString(rec["jd_id"])),
		JobTitle:        asString(rec["job_title"]),
		CompanyName:     asString(rec["company_name"]),
		CompanyIndustry: asString(rec["company_industry"]),
		Description:     asString(rec["job_description"]),
	}
	if jd.JDID == "" {
		return nil, hydrateErr("job description row has no jd_id")
	}

	return &jd, nil
}

// HydrateJDTaxonomy maps an aggregated JD row. Responsibilities come out
// sorted by their index ascending; skills carry no ordering.
func HydrateJDTaxonomy(rec Record) (*taxonomy.JDTaxonomy, error) {
	jd, err := HydrateJobDescription(rec)
	if err != nil {
		return nil, err
	}

	t := taxonomy.NewJDTaxonomy(*jd)

	rows, err := relationRows(rec, "job_required_skills")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		t.RequiredSkills = append(t.RequiredSkills, taxonomy.RequiredSkill{
			SkillName:        asString(m["skill_name"]),
			ProficiencyLevel: asString(m["proficiency_level"]),
		})
	}

	rows, err = relationRows(rec, "job_responsibilities")
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		t.Responsibilities = append(t.Responsibilities, taxonomy.Responsibility{
			Text:     asString(m["responsibility_text"]),
			Sequence: asInt(m["responsibility_index"]),
		})
	}
	sort.SliceStable(t.Responsibilities, func(i, j int) bool {
		return t.Responsibilities[i].Sequence < t.Responsibilities[j].Sequence
	})

	return t, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Template
// ─────────────────────────────────────────────────────────────────────────────

// HydrateTemplate maps a template metadata row.
func HydrateTemplate(rec Record) (*template.Metadata, error) {
	if rec == nil {
		return nil, hydrateErr("template record is empty")
	}

	md := template.Metadata{
		TemplateID:         shared.TemplateID(asString(rec["template_id"])),
		Name:               asString(rec["name"]),
		Style:              asString(rec["style"]),
		FontFamily:         asString(rec["font_family"]),
		ColorScheme:        asString(rec["color_scheme"]),
		MaxCharsPerSection: asInt(rec["max_chars_per_section"]),
		MaxPages:           asInt(rec["max_pages"]),
	}
	if md.TemplateID == "" {
		return nil, hydrateErr("template row has no template_id")
	}

	return &md, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Coercion helpers
// ─────────────────────────────────────────────────────────────────────────────

// relationRows extracts one child relation from an aggregated row. The
// value must be an array of objects; NULL counts as empty. A missing key
// or any other shape violates the uniform row contract.
func relationRows(rec Record, name string) ([]map[string]any, error) {
	v, ok := rec[name]
	if !ok {
		return nil, hydrateErr(fmt.Sprintf("relation %q missing from row", name))
	}
	if v == nil {
		return nil, nil
	}

	// Raw JSON arrives when the driver hands jsonb through undecoded.
	switch raw := v.(type) {
	case []byte:
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, hydrateErr(fmt.Sprintf("relation %q is not valid JSON", name))
		}
		v = decoded
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil, hydrateErr(fmt.Sprintf("relation %q is not valid JSON", name))
		}
		v = decoded
	}

	if v == nil {
		return nil, nil
	}

	arr, ok := v.([]any)
	if !ok {
		return nil, hydrateErr(fmt.Sprintf("relation %q is not an array", name))
	}

	rows := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, hydrateErr(fmt.Sprintf("relation %q has a non-object element", name))
		}
		rows = append(rows, m)
	}

	return rows, nil
}

func hydrateErr(msg string) error {
	return shared.WrapError("warehouse", "Hydrate", shared.ErrSchemaMismatch, msg, shared.ErrRelationShape)
}

// asString coerces a warehouse value to a string. NULL becomes "".
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// asInt coerces a warehouse value to an int. Scalar columns arrive as
// int32/int64 from the driver; values nested in JSONB arrive as float64
// or json.Number. NULL becomes 0.
func asInt(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// asFloat coerces a warehouse value to a float64. NULL becomes 0.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
