// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/student"
	"github.com/eportlabs/eport-data-api/internal/domain/taxonomy"
	"github.com/eportlabs/eport-data-api/internal/domain/template"
)

// Hand-written repository stubs. Each returns a canned object or error,
// optionally after a delay, and records what it was asked for.

type stubStudentRepo struct {
	profile *student.StudentProfile
	err     error
	delay   time.Duration
	calls   int
	gotID   shared.UserID
}

func (s *stubStudentRepo) GetCore(ctx context.Context, id shared.UserID) (*student.StudentCore, error) {
	p, err := s.GetHydrated(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p.StudentCore, nil
}

func (s *stubStudentRepo) GetHydrated(ctx context.Context, id shared.UserID) (*student.StudentProfile, error) {
	s.calls++
	s.gotID = id
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

type stubRoleRepo struct {
	tax   *taxonomy.RoleTaxonomy
	err   error
	delay time.Duration
	calls int
	gotID shared.RoleID
}

func (s *stubRoleRepo) GetCore(ctx context.Context, id shared.RoleID) (*taxonomy.Role, error) {
	t, err := s.GetHydrated(ctx, id)
	if err != nil {
		return nil, err
	}
	return &t.Role, nil
}

func (s *stubRoleRepo) GetHydrated(ctx context.Context, id shared.RoleID) (*taxonomy.RoleTaxonomy, error) {
	s.calls++
	s.gotID = id
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.tax, nil
}

type stubJDRepo struct {
	tax   *taxonomy.JDTaxonomy
	err   error
	delay time.Duration
	calls int
	gotID shared.JDID
}

func (s *stubJDRepo) GetCore(ctx context.Context, id shared.JDID) (*taxonomy.JobDescription, error) {
	t, err := s.GetHydrated(ctx, id)
	if err != nil {
		return nil, err
	}
	return &t.JobDescription, nil
}

func (s *stubJDRepo) GetHydrated(ctx context.Context, id shared.JDID) (*taxonomy.JDTaxonomy, error) {
	s.calls++
	s.gotID = id
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.tax, nil
}

type stubTemplateRepo struct {
	md    *template.Metadata
	err   error
	delay time.Duration
	calls int
	gotID shared.TemplateID
}

func (s *stubTemplateRepo) GetCore(ctx context.Context, id shared.TemplateID) (*template.Metadata, error) {
	return s.GetHydrated(ctx, id)
}

func (s *stubTemplateRepo) GetHydrated(ctx context.Context, id shared.TemplateID) (*template.Metadata, error) {
	s.calls++
	s.gotID = id
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.md, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fixtures

func fixtureProfile() *student.StudentProfile {
	p := student.NewStudentProfile(student.StudentCore{
		UserID:    "user-1",
		FirstName: "Aliya",
		LastName:  "Serikova",
		Email:     "aliya@example.kz",
	})
	p.Skills = append(p.Skills, student.Skill{SkillName: "Go"})
	return p
}

func fixtureRole() *taxonomy.RoleTaxonomy {
	t := taxonomy.NewRoleTaxonomy(taxonomy.Role{RoleID: "role-1", Title: "Data Engineer"})
	t.RequiredSkills = append(t.RequiredSkills, taxonomy.RequiredSkill{SkillName: "SQL", Rank: 1})
	return t
}

func fixtureJD() *taxonomy.JDTaxonomy {
	t := taxonomy.NewJDTaxonomy(taxonomy.JobDescription{JDID: "jd-1", JobTitle: "Backend Engineer"})
	t.Responsibilities = append(t.Responsibilities, taxonomy.Responsibility{Text: "Design service APIs", Sequence: 0})
	return t
}

func fixtureTemplate() *template.Metadata {
	return &template.Metadata{TemplateID: "tpl-1", Name: "Classic", MaxPages: 2}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
