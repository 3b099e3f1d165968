package export

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	casemodels "odontoforense/internal/casefile/models"
	victimmodels "odontoforense/internal/victim/models"
	id "odontoforense/pkg/domain"
)

func TestBuildCaseReportCoversCaseCoreFields(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	expert := id.UserID(uuid.New())

	c, err := casemodels.NewCase(
		id.CaseID(uuid.New()), "Desastre aéreo Serra Verde",
		casemodels.CaseStatusEmAndamento, "Serra Verde, MG",
		casemodels.CategoryIdentificacao, now.AddDate(0, 0, -3), expert, now)
	require.NoError(t, err)
	c.Description = "Queda de aeronave de pequeno porte."

	v, err := victimmodels.NewVictim(
		id.VictimID(uuid.New()), c.ID, "V-001",
		victimmodels.StatusNaoIdentificada, "", now)
	require.NoError(t, err)

	report := BuildCaseReport(c, []*victimmodels.Victim{v}, nil)

	assert.Equal(t, "Relatório do caso Desastre aéreo Serra Verde", report.Title)

	labeled := map[string]string{}
	var order []string
	for _, f := range report.Fields {
		labeled[f.Label] = f.Value
		order = append(order, f.Label)
	}
	assert.Equal(t, c.ID.String(), labeled["Identificador"])
	assert.Equal(t, "Desastre aéreo Serra Verde", labeled["Nome"])
	assert.Equal(t, "Queda de aeronave de pequeno porte.", labeled["Descrição"])
	assert.Equal(t, string(casemodels.CaseStatusEmAndamento), labeled["Status"])
	assert.Equal(t, "Serra Verde, MG", labeled["Local"])
	assert.Equal(t, string(casemodels.CategoryIdentificacao), labeled["Categoria"])
	assert.Equal(t, "2025-06-12T10:00:00Z", labeled["Data da ocorrência"])
	assert.Equal(t, expert.String(), labeled["Perito responsável"])
	assert.Equal(t, "1", labeled["Vítimas"])
	assert.Equal(t, "0", labeled["Evidências"])

	// Order is part of the template contract.
	assert.Equal(t, "Identificador", order[0])
	assert.Equal(t, "Nome", order[1])

	require.Len(t, report.Victims, 1)
	assert.Contains(t, report.Victims[0].Values, "V-001")
	assert.Empty(t, report.Evidences)
}
