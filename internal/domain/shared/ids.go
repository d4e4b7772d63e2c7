package shared

import "strings"

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies a student row in the warehouse. Identifiers are opaque
// strings assigned by the upstream ingestion pipeline.
type UserID string

// IsValid checks if the user ID is non-empty.
func (u UserID) IsValid() bool {
	return u != ""
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	u := UserID(strings.TrimSpace(id))
	if !u.IsValid() {
		return "", ErrInvalidUserID
	}
	return u, nil
}

// RoleID identifies a role in the role taxonomy.
type RoleID string

// IsValid checks if the role ID is non-empty.
func (r RoleID) IsValid() bool {
	return r != ""
}

// String returns the string representation.
func (r RoleID) String() string {
	return string(r)
}

// NewRoleID creates a new RoleID with validation.
func NewRoleID(id string) (RoleID, error) {
	r := RoleID(strings.TrimSpace(id))
	if !r.IsValid() {
		return "", ErrInvalidRoleID
	}
	return r, nil
}

// JDID identifies a job description in the JD taxonomy.
type JDID string

// IsValid checks if the JD ID is non-empty.
func (j JDID) IsValid() bool {
	return j != ""
}

// String returns the string representation.
func (j JDID) String() string {
	return string(j)
}

// NewJDID creates a new JDID with validation.
func NewJDID(id string) (JDID, error) {
	j := JDID(strings.TrimSpace(id))
	if !j.IsValid() {
		return "", ErrInvalidJDID
	}
	return j, nil
}

// TemplateID identifies a rendering template.
type TemplateID string

// IsValid checks if the template ID is non-empty.
func (t TemplateID) IsValid() bool {
	return t != ""
}

// String returns the string representation.
func (t TemplateID) String() string {
	return string(t)
}

// NewTemplateID creates a new TemplateID with validation.
func NewTemplateID(id string) (TemplateID, error) {
	t := TemplateID(strings.TrimSpace(id))
	if !t.IsValid() {
		return "", ErrInvalidTemplateID
	}
	return t, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Entity Type
// ═══════════════════════════════════════════════════════════════════════════

// EntityType names an entity family served by nested aggregation queries.
// The set is closed: query composition rejects anything else.
type EntityType string

const (
	EntityStudent        EntityType = "student"
	EntityRole           EntityType = "role"
	EntityJobDescription EntityType = "job_description"
)

// IsValid checks if the entity type belongs to the closed set.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityStudent, EntityRole, EntityJobDescription:
		return true
	}
	return false
}

// String returns the string representation.
func (e EntityType) String() string {
	return string(e)
}
