package models

import (
	"strings"
	"time"

	dErrors "odontoforense/pkg/domain-errors"
)

// CreateCaseRequest carries the fields a caller submits to open a case.
type CreateCaseRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Normalize trims caller-supplied strings in place.
func (r *CreateCaseRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
}

// Validate checks required fields locally, before any request is dispatched.
func (r *CreateCaseRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if _, err := ParseCaseStatus(r.Status); err != nil {
		return dErrors.New(dErrors.CodeValidation, "status is required and must be a valid status")
	}
	if r.Location == "" {
		return dErrors.New(dErrors.CodeValidation, "location is required")
	}
	if _, err := ParseCaseCategory(r.Category); err != nil {
		return dErrors.New(dErrors.CodeValidation, "category is required and must be a valid category")
	}
	return nil
}

// UpdateCaseRequest carries a full replacement of the mutable case fields
// plus the version the caller last observed.
type UpdateCaseRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	OccurredAt  time.Time `json:"occurred_at"`
	Version     int64     `json:"version"`
}

func (r *UpdateCaseRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
}

func (r *UpdateCaseRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if _, err := ParseCaseStatus(r.Status); err != nil {
		return dErrors.New(dErrors.CodeValidation, "status is required and must be a valid status")
	}
	if r.Location == "" {
		return dErrors.New(dErrors.CodeValidation, "location is required")
	}
	if _, err := ParseCaseCategory(r.Category); err != nil {
		return dErrors.New(dErrors.CodeValidation, "category is required and must be a valid category")
	}
	if r.Version < 1 {
		return dErrors.New(dErrors.CodeValidation, "version is required")
	}
	return nil
}

// ListFilter narrows case listings. Zero values mean "no filter"; results
// are always ordered most-recent first.
type ListFilter struct {
	NameContains string
	Status       CaseStatus
	Category     CaseCategory
	Limit        int
}
