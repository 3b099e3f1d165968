package models

import (
	"time"

	"odontoforense/internal/policy"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

// Case is the aggregate root of an investigation.
//
// Invariants:
//   - Name, Status, Location and Category are non-empty at all times
//   - ResponsibleExpert is never a member of Team (distinct, privileged relation)
//   - Team holds no duplicate identities
//   - Status and Category are valid enum values
//   - Version increases by one on every persisted mutation
//
// Deleting a case cascades to its victims (and their odontograms) and its
// evidence; the store layer makes the cascade atomic.
type Case struct {
	ID                id.CaseID    `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	Status            CaseStatus   `json:"status"`
	Location          string       `json:"location"`
	Category          CaseCategory `json:"category"`
	OccurredAt        time.Time    `json:"occurred_at"`
	ResponsibleExpert id.UserID    `json:"responsible_expert"`
	Team              []id.UserID  `json:"team"`
	Version           int64        `json:"version"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NewCase constructs a case, enforcing creation invariants.
func NewCase(caseID id.CaseID, name string, status CaseStatus, location string, category CaseCategory, occurredAt time.Time, responsible id.UserID, now time.Time) (*Case, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case name cannot be empty")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case status must be one of em_andamento, finalizado, arquivado")
	}
	if location == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case location cannot be empty")
	}
	if !category.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case category is invalid")
	}
	if responsible.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case requires a responsible expert")
	}
	return &Case{
		ID:                caseID,
		Name:              name,
		Status:            status,
		Location:          location,
		Category:          category,
		OccurredAt:        occurredAt,
		ResponsibleExpert: responsible,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Authority exposes the slice of the case the permission engine evaluates.
func (c *Case) Authority() policy.CaseAuthority {
	return policy.CaseAuthority{ResponsibleExpert: c.ResponsibleExpert}
}

// HasMember reports whether the identity is an ordinary team member.
func (c *Case) HasMember(userID id.UserID) bool {
	for _, m := range c.Team {
		if m == userID {
			return true
		}
	}
	return false
}

// CanAddMember checks the membership invariants for a prospective member.
func (c *Case) CanAddMember(userID id.UserID) error {
	if userID == c.ResponsibleExpert {
		return dErrors.New(dErrors.CodeAlreadyMember, "identity is the case's responsible expert")
	}
	if c.HasMember(userID) {
		return dErrors.New(dErrors.CodeAlreadyMember, "identity is already a team member")
	}
	return nil
}

// ApplyAddMember appends the member. Call CanAddMember first.
func (c *Case) ApplyAddMember(userID id.UserID, now time.Time) {
	c.Team = append(c.Team, userID)
	c.UpdatedAt = now
}

// CanRemoveMember checks removal invariants. Removing the responsible expert
// is always rejected; responsibility transfer is not modeled.
func (c *Case) CanRemoveMember(userID id.UserID) error {
	if userID == c.ResponsibleExpert {
		return dErrors.New(dErrors.CodeNotMember, "the responsible expert cannot be removed from the team")
	}
	if !c.HasMember(userID) {
		return dErrors.New(dErrors.CodeNotMember, "identity is not a team member")
	}
	return nil
}

// ApplyRemoveMember removes the member. Call CanRemoveMember first.
func (c *Case) ApplyRemoveMember(userID id.UserID, now time.Time) {
	out := c.Team[:0]
	for _, m := range c.Team {
		if m != userID {
			out = append(out, m)
		}
	}
	c.Team = out
	c.UpdatedAt = now
}

// ApplyUpdate overwrites the mutable fields. Validation happens in the
// request before this is called.
func (c *Case) ApplyUpdate(name, description string, status CaseStatus, location string, category CaseCategory, occurredAt time.Time, now time.Time) {
	c.Name = name
	c.Description = description
	c.Status = status
	c.Location = location
	c.Category = category
	c.OccurredAt = occurredAt
	c.UpdatedAt = now
}
