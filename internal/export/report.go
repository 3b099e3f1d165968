package export

import (
	"context"
	"strconv"
	"strings"

	casemodels "odontoforense/internal/casefile/models"
	evidencemodels "odontoforense/internal/evidence/models"
	victimmodels "odontoforense/internal/victim/models"
)

// Field is one labeled value of a report, in render order.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Report is the template handed to the external document renderer. Layout is
// the renderer's business; this side only guarantees the content.
type Report struct {
	Title     string   `json:"title"`
	Fields    []Field  `json:"fields"`
	Victims   []Record `json:"victims,omitempty"`
	Evidences []Record `json:"evidences,omitempty"`
}

// Renderer turns a report into a finished document. Implemented outside this
// system; only the mock lives here.
type Renderer interface {
	Render(ctx context.Context, report *Report) ([]byte, error)
}

// BuildCaseReport assembles the renderer template for one case. Every core
// case field appears as a labeled entry regardless of layout.
func BuildCaseReport(c *casemodels.Case, victims []*victimmodels.Victim, evidences []*evidencemodels.Evidence) *Report {
	team := make([]string, len(c.Team))
	for i, member := range c.Team {
		team[i] = member.String()
	}

	report := &Report{
		Title: "Relatório do caso " + c.Name,
		Fields: []Field{
			{Label: "Identificador", Value: c.ID.String()},
			{Label: "Nome", Value: c.Name},
			{Label: "Descrição", Value: c.Description},
			{Label: "Status", Value: string(c.Status)},
			{Label: "Local", Value: c.Location},
			{Label: "Categoria", Value: string(c.Category)},
			{Label: "Data da ocorrência", Value: stamp(c.OccurredAt)},
			{Label: "Perito responsável", Value: c.ResponsibleExpert.String()},
			{Label: "Equipe", Value: strings.Join(team, "; ")},
			{Label: "Vítimas", Value: strconv.Itoa(len(victims))},
			{Label: "Evidências", Value: strconv.Itoa(len(evidences))},
		},
	}
	for _, v := range victims {
		report.Victims = append(report.Victims, VictimRecord(v))
	}
	for _, e := range evidences {
		report.Evidences = append(report.Evidences, EvidenceRecord(e))
	}
	return report
}
