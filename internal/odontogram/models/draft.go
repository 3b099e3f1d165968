package models

import (
	"time"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

// Draft is a client-side chart under construction. Findings are staged one
// tooth at a time and nothing is dispatched until Commit, which validates
// completeness and the required chart-level fields in one place.
type Draft struct {
	VictimID                 id.VictimID
	CaseID                   id.CaseID
	Type                     ChartType
	ExaminationDate          time.Time
	GeneralObservations      string
	SummaryForIdentification string

	staged map[string]ToothRecord
}

// NewDraft starts an empty draft for a victim.
func NewDraft(victimID id.VictimID, caseID id.CaseID, chartType ChartType) *Draft {
	return &Draft{
		VictimID: victimID,
		CaseID:   caseID,
		Type:     chartType,
		staged:   make(map[string]ToothRecord),
	}
}

// SetTooth stages a finding. Invalid positions are rejected immediately so a
// bad code never survives until commit.
func (d *Draft) SetTooth(fdi string, status ToothStatus, observations string) error {
	if _, err := ParseFDI(fdi); err != nil {
		return err
	}
	if !status.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown tooth status %q", status)
	}
	d.staged[fdi] = ToothRecord{FDI: fdi, Status: status, Observations: observations}
	return nil
}

// ClearTooth drops a staged finding, reverting the position to the
// nao_examinado default it will receive at commit.
func (d *Draft) ClearTooth(fdi string) error {
	if _, err := ParseFDI(fdi); err != nil {
		return err
	}
	delete(d.staged, fdi)
	return nil
}

// Staged returns how many positions carry an explicit finding.
func (d *Draft) Staged() int {
	return len(d.staged)
}

// Commit materializes the draft into a full 32-position chart. Unstaged
// positions default to nao_examinado.
func (d *Draft) Commit(chartID id.OdontogramID, now time.Time) (*Odontogram, error) {
	chart, err := NewChart(chartID, d.VictimID, d.CaseID, d.Type, d.ExaminationDate, d.staged, now)
	if err != nil {
		return nil, err
	}
	chart.GeneralObservations = d.GeneralObservations
	chart.SummaryForIdentification = d.SummaryForIdentification
	return chart, nil
}
