// Package models defines the evidence item attached to a case.
package models

import (
	"time"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

// EvidenceType classifies what the Data field carries.
type EvidenceType string

const (
	TypeTextDescription EvidenceType = "text_description"
	TypeImage           EvidenceType = "image"
	TypeOdontogram      EvidenceType = "odontogram"
	TypeOther           EvidenceType = "other"
)

// ParseEvidenceType constructs an EvidenceType from external input.
func ParseEvidenceType(s string) (EvidenceType, error) {
	switch EvidenceType(s) {
	case TypeTextDescription, TypeImage, TypeOdontogram, TypeOther:
		return EvidenceType(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown evidence type %q", s)
}

func (t EvidenceType) IsValid() bool {
	switch t {
	case TypeTextDescription, TypeImage, TypeOdontogram, TypeOther:
		return true
	}
	return false
}

// Location is a collection-site geotag.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return dErrors.Newf(dErrors.CodeValidation, "latitude %v is out of range", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return dErrors.Newf(dErrors.CodeValidation, "longitude %v is out of range", l.Longitude)
	}
	return nil
}

// Evidence is one collected item under a case. Data is the payload itself for
// textual items and an opaque reference for images.
type Evidence struct {
	ID          id.EvidenceID `json:"id"`
	CaseID      id.CaseID     `json:"case_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Type        EvidenceType  `json:"type"`
	Data        string        `json:"data"`
	Category    string        `json:"category,omitempty"`
	CollectedBy id.UserID     `json:"collected_by"`
	Location    *Location     `json:"location,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewEvidence constructs an evidence item, enforcing the field invariants.
func NewEvidence(evidenceID id.EvidenceID, caseID id.CaseID, title string, evidenceType EvidenceType, data string, collectedBy id.UserID, now time.Time) (*Evidence, error) {
	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence requires an owning case")
	}
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence title is required")
	}
	if !evidenceType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence type is invalid")
	}
	if data == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence data is required")
	}
	if collectedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence requires a collector")
	}
	return &Evidence{
		ID:          evidenceID,
		CaseID:      caseID,
		Title:       title,
		Type:        evidenceType,
		Data:        data,
		CollectedBy: collectedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AttachLocation sets the geotag. Once attached it only changes through
// ClearLocation followed by a fresh attach.
func (e *Evidence) AttachLocation(loc Location, now time.Time) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	if e.Location != nil && *e.Location != loc {
		return dErrors.New(dErrors.CodeValidation, "evidence location is already set; clear it explicitly before attaching a new one")
	}
	e.Location = &loc
	e.UpdatedAt = now
	return nil
}

// ClearLocation removes the geotag.
func (e *Evidence) ClearLocation(now time.Time) {
	e.Location = nil
	e.UpdatedAt = now
}

// ApplyUpdate replaces the mutable descriptive fields. Location is handled
// separately so it can never be dropped by omission.
func (e *Evidence) ApplyUpdate(title, description string, evidenceType EvidenceType, data, category string, now time.Time) {
	e.Title = title
	e.Description = description
	e.Type = evidenceType
	e.Data = data
	e.Category = category
	e.UpdatedAt = now
}
