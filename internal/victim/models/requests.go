package models

import (
	"strings"

	dErrors "odontoforense/pkg/domain-errors"
)

// CreateVictimRequest carries the fields a caller submits to register a
// victim under a case.
type CreateVictimRequest struct {
	VictimCode           string `json:"victim_code"`
	IdentificationStatus string `json:"identification_status"`
	Name                 string `json:"name"`
	Sex                  string `json:"sex"`
	EstimatedAge         int    `json:"estimated_age"`
	Ethnicity            string `json:"ethnicity"`
}

func (r *CreateVictimRequest) Normalize() {
	r.VictimCode = strings.TrimSpace(r.VictimCode)
	r.Name = strings.TrimSpace(r.Name)
	r.Ethnicity = strings.TrimSpace(r.Ethnicity)
}

func (r *CreateVictimRequest) Validate() error {
	if r.VictimCode == "" {
		return dErrors.New(dErrors.CodeValidation, "victim_code is required")
	}
	status, err := ParseIdentificationStatus(r.IdentificationStatus)
	if err != nil {
		return err
	}
	if status.RequiresName() && r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required for an identified victim")
	}
	if _, err := ParseSex(r.Sex); err != nil {
		return err
	}
	if r.EstimatedAge < 0 {
		return dErrors.New(dErrors.CodeValidation, "estimated_age cannot be negative")
	}
	return nil
}

// UpdateVictimRequest carries a full replacement of the mutable victim
// fields.
type UpdateVictimRequest struct {
	VictimCode           string `json:"victim_code"`
	IdentificationStatus string `json:"identification_status"`
	Name                 string `json:"name"`
	Sex                  string `json:"sex"`
	EstimatedAge         int    `json:"estimated_age"`
	Ethnicity            string `json:"ethnicity"`
}

func (r *UpdateVictimRequest) Normalize() {
	r.VictimCode = strings.TrimSpace(r.VictimCode)
	r.Name = strings.TrimSpace(r.Name)
	r.Ethnicity = strings.TrimSpace(r.Ethnicity)
}

func (r *UpdateVictimRequest) Validate() error {
	create := CreateVictimRequest{
		VictimCode:           r.VictimCode,
		IdentificationStatus: r.IdentificationStatus,
		Name:                 r.Name,
		Sex:                  r.Sex,
		EstimatedAge:         r.EstimatedAge,
		Ethnicity:            r.Ethnicity,
	}
	return create.Validate()
}
