package domain

import dErrors "odontoforense/pkg/domain-errors"

// Role is the forensic role an authenticated actor holds for the duration of
// a session. Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

// Supported roles.
const (
	RoleAdmin      Role = "admin"
	RolePerito     Role = "perito"
	RoleAssistente Role = "assistente"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleAdmin:      true,
	RolePerito:     true,
	RoleAssistente: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// TeamEligible reports whether identities with this role may appear in team
// search results. Admins only relate to a case as its responsible expert,
// never as an ordinary team member.
func (r Role) TeamEligible() bool {
	return r == RolePerito || r == RoleAssistente
}
