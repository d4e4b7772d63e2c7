package warehouse

import (
	"context"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository over the warehouse.
// Both reads target the same core table through the same composed key
// predicate, so GetCore and GetHydrated always agree on whether a student
// exists.
type StudentRepository struct {
	composer *Composer
	client   *Client
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(composer *Composer, client *Client) *StudentRepository {
	return &StudentRepository{composer: composer, client: client}
}

var _ student.Repository = (*StudentRepository)(nil)

// GetCore returns the scalar profile row for a student.
func (r *StudentRepository) GetCore(ctx context.Context, id shared.UserID) (*student.StudentCore, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidUserID
	}

	q, err := r.composer.ComposeCore(shared.EntityStudent, id.String())
	if err != nil {
		return nil, err
	}

	rows, err := r.client.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	rec, ok := rows.One()
	if !ok {
		return nil, shared.ErrStudentNotFound
	}

	return HydrateStudentCore(rec)
}

// GetHydrated returns the full profile with all nine child collections,
// fetched in a single warehouse round trip.
func (r *StudentRepository) GetHydrated(ctx context.Context, id shared.UserID) (*student.StudentProfile, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidUserID
	}

	q, err := r.composer.Compose(shared.EntityStudent, id.String())
	if err != nil {
		return nil, err
	}

	rows, err := r.client.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	rec, ok := rows.One()
	if !ok {
		return nil, shared.ErrStudentNotFound
	}

	return HydrateStudentProfile(rec)
}
