package models

import (
	"strings"
	"time"

	dErrors "odontoforense/pkg/domain-errors"
)

// ToothInput is one seed finding in a chart creation request.
type ToothInput struct {
	Status       string `json:"status"`
	Observations string `json:"observations"`
}

// CreateChartRequest carries the fields a caller submits to open a chart for
// a victim.
type CreateChartRequest struct {
	Type                     string                `json:"type"`
	ExaminationDate          time.Time             `json:"examination_date"`
	GeneralObservations      string                `json:"general_observations"`
	SummaryForIdentification string                `json:"summary_for_identification"`
	Teeth                    map[string]ToothInput `json:"teeth"`
}

func (r *CreateChartRequest) Normalize() {
	r.GeneralObservations = strings.TrimSpace(r.GeneralObservations)
	r.SummaryForIdentification = strings.TrimSpace(r.SummaryForIdentification)
}

func (r *CreateChartRequest) Validate() error {
	if _, err := ParseChartType(r.Type); err != nil {
		return err
	}
	if r.ExaminationDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "examination_date is required")
	}
	for fdi, tooth := range r.Teeth {
		if _, err := ParseFDI(fdi); err != nil {
			return err
		}
		if _, err := ParseToothStatus(tooth.Status); err != nil {
			return err
		}
	}
	return nil
}

// Seed converts the request's teeth into chart seed records.
func (r *CreateChartRequest) Seed() map[string]ToothRecord {
	seed := make(map[string]ToothRecord, len(r.Teeth))
	for fdi, tooth := range r.Teeth {
		seed[fdi] = ToothRecord{
			FDI:          fdi,
			Status:       ToothStatus(tooth.Status),
			Observations: strings.TrimSpace(tooth.Observations),
		}
	}
	return seed
}

// UpdateChartRequest carries a replacement of the chart-level fields plus the
// version the caller last observed. Tooth findings change through
// UpdateToothRequest only.
type UpdateChartRequest struct {
	ExaminationDate          time.Time `json:"examination_date"`
	GeneralObservations      string    `json:"general_observations"`
	SummaryForIdentification string    `json:"summary_for_identification"`
	Version                  int64     `json:"version"`
}

func (r *UpdateChartRequest) Normalize() {
	r.GeneralObservations = strings.TrimSpace(r.GeneralObservations)
	r.SummaryForIdentification = strings.TrimSpace(r.SummaryForIdentification)
}

func (r *UpdateChartRequest) Validate() error {
	if r.ExaminationDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "examination_date is required")
	}
	if r.Version < 1 {
		return dErrors.New(dErrors.CodeValidation, "version is required")
	}
	return nil
}

// UpdateToothRequest carries a single-tooth edit.
type UpdateToothRequest struct {
	Status       string `json:"status"`
	Observations string `json:"observations"`
	Version      int64  `json:"version"`
}

func (r *UpdateToothRequest) Validate() error {
	if _, err := ParseToothStatus(r.Status); err != nil {
		return err
	}
	if r.Version < 1 {
		return dErrors.New(dErrors.CodeValidation, "version is required")
	}
	return nil
}
