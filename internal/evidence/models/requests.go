package models

import (
	"strings"

	dErrors "odontoforense/pkg/domain-errors"
)

// CreateEvidenceRequest carries the fields a caller submits to register an
// evidence item under a case.
type CreateEvidenceRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Data        string    `json:"data"`
	Category    string    `json:"category"`
	Location    *Location `json:"location"`
}

func (r *CreateEvidenceRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Data = strings.TrimSpace(r.Data)
	r.Category = strings.TrimSpace(r.Category)
}

func (r *CreateEvidenceRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if _, err := ParseEvidenceType(r.Type); err != nil {
		return err
	}
	if r.Data == "" {
		return dErrors.New(dErrors.CodeValidation, "data is required")
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateEvidenceRequest replaces the descriptive fields. An attached location
// survives the update unless ClearLocation is set; omitting the location of a
// geotagged item without that flag is rejected.
type UpdateEvidenceRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	Data          string    `json:"data"`
	Category      string    `json:"category"`
	Location      *Location `json:"location"`
	ClearLocation bool      `json:"clear_location"`
}

func (r *UpdateEvidenceRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Data = strings.TrimSpace(r.Data)
	r.Category = strings.TrimSpace(r.Category)
}

func (r *UpdateEvidenceRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if _, err := ParseEvidenceType(r.Type); err != nil {
		return err
	}
	if r.Data == "" {
		return dErrors.New(dErrors.CodeValidation, "data is required")
	}
	if r.ClearLocation && r.Location != nil {
		return dErrors.New(dErrors.CodeValidation, "clear_location and location are mutually exclusive")
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}
