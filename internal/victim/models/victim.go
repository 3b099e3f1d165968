// Package models holds the victim aggregate owned by a case.
package models

import (
	"time"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

// IdentificationStatus tracks how far a victim's identification has
// progressed.
type IdentificationStatus string

const (
	StatusNaoIdentificada          IdentificationStatus = "nao_identificada"
	StatusEmProcessoIdentificacao  IdentificationStatus = "em_processo_de_identificacao"
	StatusParcialmenteIdentificada IdentificationStatus = "parcialmente_identificada"
	StatusIdentificada             IdentificationStatus = "identificada"
)

var validIdentificationStatuses = map[IdentificationStatus]bool{
	StatusNaoIdentificada:          true,
	StatusEmProcessoIdentificacao:  true,
	StatusParcialmenteIdentificada: true,
	StatusIdentificada:             true,
}

// ParseIdentificationStatus constructs an IdentificationStatus from external
// input.
func ParseIdentificationStatus(s string) (IdentificationStatus, error) {
	st := IdentificationStatus(s)
	if !validIdentificationStatuses[st] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown identification status %q", s)
	}
	return st, nil
}

func (s IdentificationStatus) IsValid() bool {
	return validIdentificationStatuses[s]
}

// RequiresName reports whether a victim in this status must carry a name.
func (s IdentificationStatus) RequiresName() bool {
	return s == StatusIdentificada || s == StatusParcialmenteIdentificada
}

func (s IdentificationStatus) String() string {
	return string(s)
}

// Sex is the biological sex estimated or confirmed during the exam. Optional;
// the empty value means not recorded.
type Sex string

const (
	SexMasculino     Sex = "masculino"
	SexFeminino      Sex = "feminino"
	SexIndeterminado Sex = "indeterminado"
)

// ParseSex validates an optional sex value. The empty string is accepted.
func ParseSex(s string) (Sex, error) {
	switch Sex(s) {
	case "", SexMasculino, SexFeminino, SexIndeterminado:
		return Sex(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown sex %q", s)
}

// Victim is a victim record inside a case. Demographic fields are optional;
// a name becomes mandatory once identification progresses.
//
// A victim owns at most one post-mortem odontogram plus any number of
// ante-mortem records; those live in the odontogram store, and
// PostMortemOdontogram is a read-side convenience filled in by the service.
type Victim struct {
	ID                   id.VictimID          `json:"id"`
	CaseID               id.CaseID            `json:"case_id"`
	VictimCode           string               `json:"victim_code"`
	IdentificationStatus IdentificationStatus `json:"identification_status"`
	Name                 string               `json:"name,omitempty"`
	Sex                  Sex                  `json:"sex,omitempty"`
	EstimatedAge         int                  `json:"estimated_age,omitempty"`
	Ethnicity            string               `json:"ethnicity,omitempty"`
	PostMortemOdontogram *id.OdontogramID     `json:"post_mortem_odontogram,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// NewVictim constructs a victim, enforcing creation invariants.
func NewVictim(victimID id.VictimID, caseID id.CaseID, code string, status IdentificationStatus, name string, now time.Time) (*Victim, error) {
	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "victim requires an owning case")
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "victim code cannot be empty")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identification status is invalid")
	}
	if status.RequiresName() && name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "an identified victim must have a name")
	}
	return &Victim{
		ID:                   victimID,
		CaseID:               caseID,
		VictimCode:           code,
		IdentificationStatus: status,
		Name:                 name,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// ApplyUpdate overwrites the mutable fields. Validation happens in the
// request before this is called.
func (v *Victim) ApplyUpdate(code string, status IdentificationStatus, name string, sex Sex, estimatedAge int, ethnicity string, now time.Time) {
	v.VictimCode = code
	v.IdentificationStatus = status
	v.Name = name
	v.Sex = sex
	v.EstimatedAge = estimatedAge
	v.Ethnicity = ethnicity
	v.UpdatedAt = now
}
