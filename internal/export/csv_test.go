package export

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evidencemodels "odontoforense/internal/evidence/models"
	id "odontoforense/pkg/domain"
)

func TestWriteCSVQuotesEveryValue(t *testing.T) {
	records := []Record{
		{
			Fields: []string{"title", "category", "data"},
			Values: []string{"Arcada superior", "foto", "s3://bucket/a.jpg"},
		},
		{
			Fields: []string{"ignored", "by", "later-rows"},
			Values: []string{`aspas "internas"`, "", "linha,com,vírgulas"},
		},
	}

	want := `"title","category","data"` + "\n" +
		`"Arcada superior","foto","s3://bucket/a.jpg"` + "\n" +
		`"aspas ""internas""","","linha,com,vírgulas"` + "\n"
	assert.Equal(t, want, string(WriteCSV(records)))
}

func TestWriteCSVEmpty(t *testing.T) {
	assert.Nil(t, WriteCSV(nil))
}

func TestEvidenceTable(t *testing.T) {
	collector := id.UserID(uuid.New())
	caseID := id.CaseID(uuid.New())
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	e, err := evidencemodels.NewEvidence(
		id.EvidenceID(uuid.New()), caseID,
		"Fragmento de mandíbula", evidencemodels.TypeImage,
		"s3://evidencias/fragmento.jpg", collector, now)
	require.NoError(t, err)
	e.Description = `encontrado no "setor 3"`
	require.NoError(t, e.AttachLocation(evidencemodels.Location{Latitude: -23.55, Longitude: -46.63}, now))

	out := string(EvidenceTable([]*evidencemodels.Evidence{e}))

	assert.Contains(t, out, `"id","case_id","title","description","type","data","category","collected_by","latitude","longitude","created_at","updated_at"`+"\n")
	assert.Contains(t, out, `"encontrado no ""setor 3"""`)
	assert.Contains(t, out, `"-23.55","-46.63"`)
	assert.Contains(t, out, `"2025-06-15T10:00:00Z"`)
}
