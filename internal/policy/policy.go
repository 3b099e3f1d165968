// Package policy is the permission engine. Every mutating operation on a
// case or its sub-entities asks this package first; on refusal the operation
// fails with unauthorized and performs no side effect. Authority over
// victims, odontograms and evidence derives transitively from the owning
// case, so the predicates only ever look at the case.
package policy

import (
	id "odontoforense/pkg/domain"
)

// Actor is the authenticated identity evaluated by the engine. Immutable for
// the duration of a session.
type Actor struct {
	ID   id.UserID
	Role id.Role
}

// CaseAuthority is the slice of a case the engine needs: who owns it.
type CaseAuthority struct {
	ResponsibleExpert id.UserID
}

// Surface identifies the caller-side privilege set for team management. The
// admin console treats admins and the responsible expert identically; the
// expert console restricts team management to the responsible expert only.
type Surface int

const (
	ExpertConsole Surface = iota
	AdminConsole
)

// CanManageCase reports whether the actor may mutate the case and everything
// it owns. True iff the actor is an admin or the case's responsible expert.
func CanManageCase(actor Actor, c CaseAuthority) bool {
	return actor.Role == id.RoleAdmin || actor.ID == c.ResponsibleExpert
}

// CanManageTeam reports whether the actor may edit team membership through
// the given surface.
func CanManageTeam(actor Actor, c CaseAuthority, surface Surface) bool {
	if actor.ID == c.ResponsibleExpert {
		return true
	}
	return surface == AdminConsole && actor.Role == id.RoleAdmin
}

// CanCreateCase reports whether the actor may open a new case. Cases are
// created by peritos; admins may open one on a perito's behalf.
func CanCreateCase(actor Actor) bool {
	return actor.Role == id.RolePerito || actor.Role == id.RoleAdmin
}

// Capabilities is the capability set computed once per request context and
// passed explicitly, instead of re-deriving role checks at every call site.
type Capabilities struct {
	CanEditCase       bool `json:"can_edit_case"`
	CanDeleteCase     bool `json:"can_delete_case"`
	CanManageTeam     bool `json:"can_manage_team"`
	CanManageVictims  bool `json:"can_manage_victims"`
	CanEditOdontogram bool `json:"can_edit_odontogram"`
	CanManageEvidence bool `json:"can_manage_evidence"`
}

// CapabilitiesFor computes the actor's capability set over one case.
func CapabilitiesFor(actor Actor, c CaseAuthority, surface Surface) Capabilities {
	manage := CanManageCase(actor, c)
	return Capabilities{
		CanEditCase:       manage,
		CanDeleteCase:     manage,
		CanManageTeam:     CanManageTeam(actor, c, surface),
		CanManageVictims:  manage,
		CanEditOdontogram: manage,
		CanManageEvidence: manage,
	}
}
