// Package http implements the REST surface of the e-portfolio data API.
package http

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/student"
	"github.com/eportlabs/eport-data-api/internal/domain/taxonomy"
	"github.com/eportlabs/eport-data-api/internal/domain/template"
	"github.com/eportlabs/eport-data-api/internal/infrastructure/persistence/warehouse"
	"github.com/eportlabs/eport-data-api/internal/infrastructure/scheduler"
	"github.com/eportlabs/eport-data-api/internal/interface/http/handlers"
	"github.com/eportlabs/eport-data-api/pkg/logger"
)

// Hand-written stubs for the handler dependencies. Each repository returns
// a canned object or error and records the id it was asked for.

type stubStudentRepo struct {
	profile *student.StudentProfile
	err     error
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
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

type stubRoleRepo struct {
	tax   *taxonomy.RoleTaxonomy
	err   error
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
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.tax, nil
}

type stubJDRepo struct {
	tax   *taxonomy.JDTaxonomy
	err   error
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
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.tax, nil
}

type stubTemplateRepo struct {
	md    *template.Metadata
	err   error
	gotID shared.TemplateID
}

func (s *stubTemplateRepo) GetCore(ctx context.Context, id shared.TemplateID) (*template.Metadata, error) {
	return s.GetHydrated(ctx, id)
}

func (s *stubTemplateRepo) GetHydrated(ctx context.Context, id shared.TemplateID) (*template.Metadata, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.md, nil
}

type stubRefreshRunner struct {
	result *scheduler.JobResult
	err    error
	gotJob string
	calls  int
}

func (s *stubRefreshRunner) RunNow(ctx context.Context, jobName string) (*scheduler.JobResult, error) {
	s.calls++
	s.gotJob = jobName
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubRegistryView struct {
	snap warehouse.Snapshot
}

func (s *stubRegistryView) Snapshot() warehouse.Snapshot { return s.snap }

type stubHealthChecker struct {
	status handlers.HealthStatus
}

func (s *stubHealthChecker) Check(ctx context.Context) handlers.HealthStatus { return s.status }

func (s *stubHealthChecker) AddCheck(name string, check handlers.HealthCheckFunc) {}

func (s *stubHealthChecker) RemoveCheck(name string) {}

type recordedRequest struct {
	method string
	route  string
	status int
}

// recordingMetrics captures request observations in order.
type recordingMetrics struct {
	requests []recordedRequest
	errors   []string
}

func (m *recordingMetrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.requests = append(m.requests, recordedRequest{method: method, route: route, status: status})
}

func (m *recordingMetrics) AddRequestError(kind string) {
	m.errors = append(m.errors, kind)
}

// Fixtures

func fixtureProfile() *student.StudentProfile {
	p := student.NewStudentProfile(student.StudentCore{
		UserID:    "user-1",
		FirstName: "Aliya",
		LastName:  "Serikova",
		Email:     "aliya@example.kz",
		City:      "Almaty",
	})
	p.Education = append(p.Education,
		student.Education{Institution: "KBTU", Degree: "BSc"},
		student.Education{Institution: "Nazarbayev University", Degree: "MSc"},
	)
	p.Skills = append(p.Skills, student.Skill{SkillName: "Go", Proficiency: "advanced"})
	return p
}

func fixtureRole() *taxonomy.RoleTaxonomy {
	t := taxonomy.NewRoleTaxonomy(taxonomy.Role{RoleID: "role-1", Title: "Data Engineer"})
	t.RequiredSkills = append(t.RequiredSkills,
		taxonomy.RequiredSkill{SkillName: "SQL", Rank: 1},
		taxonomy.RequiredSkill{SkillName: "Airflow", Rank: 2},
	)
	return t
}

func fixtureJD() *taxonomy.JDTaxonomy {
	t := taxonomy.NewJDTaxonomy(taxonomy.JobDescription{JDID: "jd-1", JobTitle: "Backend Engineer", CompanyName: "Acme"})
	t.Responsibilities = append(t.Responsibilities,
		taxonomy.Responsibility{Text: "Design service APIs", Sequence: 0},
	)
	return t
}

func fixtureTemplate() *template.Metadata {
	return &template.Metadata{TemplateID: "tpl-1", Name: "Classic", MaxPages: 2}
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func quietSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
