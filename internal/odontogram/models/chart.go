package models

import (
	"time"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

// ChartType distinguishes the post-mortem exam from ante-mortem records
// gathered from prior dental documentation.
type ChartType string

const (
	TypePostMortem ChartType = "post_mortem"
	TypeAnteMortem ChartType = "ante_mortem_registro"
)

// ParseChartType constructs a ChartType from external input.
func ParseChartType(s string) (ChartType, error) {
	switch ChartType(s) {
	case TypePostMortem, TypeAnteMortem:
		return ChartType(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown odontogram type %q", s)
}

func (t ChartType) IsValid() bool {
	return t == TypePostMortem || t == TypeAnteMortem
}

func (t ChartType) String() string {
	return string(t)
}

// Odontogram is a 32-position FDI tooth chart.
//
// Invariants:
//   - Teeth holds exactly the 32 canonical FDI keys at all times
//   - each victim owns at most one post_mortem chart (store-enforced)
//   - Version increases by one on every persisted mutation
type Odontogram struct {
	ID                       id.OdontogramID        `json:"id"`
	VictimID                 id.VictimID            `json:"victim_id"`
	CaseID                   id.CaseID              `json:"case_id"`
	Type                     ChartType              `json:"type"`
	ExaminationDate          time.Time              `json:"examination_date"`
	GeneralObservations      string                 `json:"general_observations,omitempty"`
	SummaryForIdentification string                 `json:"summary_for_identification,omitempty"`
	Teeth                    map[string]ToothRecord `json:"teeth"`
	Version                  int64                  `json:"version"`
	CreatedAt                time.Time              `json:"created_at"`
	UpdatedAt                time.Time              `json:"updated_at"`
}

// NewChart constructs a chart with all 32 positions populated. Positions
// missing from seed default to nao_examinado; seed keys outside the canonical
// set are rejected.
func NewChart(chartID id.OdontogramID, victimID id.VictimID, caseID id.CaseID, chartType ChartType, examinationDate time.Time, seed map[string]ToothRecord, now time.Time) (*Odontogram, error) {
	if victimID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "odontogram requires a victim")
	}
	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "odontogram requires an owning case")
	}
	if !chartType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "odontogram type is invalid")
	}
	if examinationDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "examination date is required")
	}

	for fdi := range seed {
		if !ValidFDI(fdi) {
			return nil, dErrors.Newf(dErrors.CodeInvalidFDI, "FDI code %q is not in the 32-position permanent dentition", fdi)
		}
	}

	teeth := make(map[string]ToothRecord, len(CanonicalFDI))
	for _, fdi := range CanonicalFDI {
		record, ok := seed[fdi]
		if !ok {
			teeth[fdi] = ToothRecord{FDI: fdi, Status: ToothNaoExaminado}
			continue
		}
		if !record.Status.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "tooth %s carries an invalid status", fdi)
		}
		record.FDI = fdi
		teeth[fdi] = record
	}

	return &Odontogram{
		ID:              chartID,
		VictimID:        victimID,
		CaseID:          caseID,
		Type:            chartType,
		ExaminationDate: examinationDate,
		Teeth:           teeth,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// SetTooth replaces the finding at one position. Charts never grow or shrink;
// clearing a finding means setting it back to nao_examinado.
func (o *Odontogram) SetTooth(fdi string, status ToothStatus, observations string, now time.Time) error {
	if !ValidFDI(fdi) {
		return dErrors.Newf(dErrors.CodeInvalidFDI, "FDI code %q is not in the 32-position permanent dentition", fdi)
	}
	if !status.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown tooth status %q", status)
	}
	o.Teeth[fdi] = ToothRecord{FDI: fdi, Status: status, Observations: observations}
	o.UpdatedAt = now
	return nil
}

// ResetTooth returns one position to the unexamined default.
func (o *Odontogram) ResetTooth(fdi string, now time.Time) error {
	return o.SetTooth(fdi, ToothNaoExaminado, "", now)
}

// ApplyUpdate overwrites the chart-level fields. Tooth findings change only
// through SetTooth.
func (o *Odontogram) ApplyUpdate(examinationDate time.Time, generalObservations, summary string, now time.Time) {
	o.ExaminationDate = examinationDate
	o.GeneralObservations = generalObservations
	o.SummaryForIdentification = summary
	o.UpdatedAt = now
}

// Complete reports whether the chart still holds exactly the canonical 32
// positions. Stores run this before persisting.
func (o *Odontogram) Complete() bool {
	if len(o.Teeth) != len(CanonicalFDI) {
		return false
	}
	for _, fdi := range CanonicalFDI {
		if _, ok := o.Teeth[fdi]; !ok {
			return false
		}
	}
	return true
}
