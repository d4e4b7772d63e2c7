// Package student contains the read model for e-portfolio student profiles.
//
// The package defines:
//
//   - StudentCore: the scalar identity/contact row, used as a cheap
//     existence probe.
//   - StudentProfile: the fully hydrated aggregate with nine child
//     collections (education, experience, skills, awards, extracurriculars,
//     publications, training, references, additional info).
//   - Repository: the read interface implemented in
//     infrastructure/persistence/warehouse.
//
// # Design
//
// Profiles are materialized views over a normalized analytical schema. They
// are rebuilt from warehouse state on every request and carry no identity
// beyond the request that produced them. The package therefore holds no
// mutation methods and no events: it is a pure read model.
//
// Child collections are never nil. A relation with no matching rows, or a
// relation missing from the warehouse schema entirely, hydrates to an empty
// slice. Callers can range over any collection without a nil check:
//
//	profile, err := repo.GetHydrated(ctx, userID)
//	if err != nil {
//	    return err
//	}
//	for _, edu := range profile.Education {
//	    render(edu)
//	}
//
// # Zero external dependencies
//
// Like every domain package here, this one depends only on the standard
// library and internal/domain/shared. Persistence concerns live behind the
// Repository interface.
package student
