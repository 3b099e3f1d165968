package export

import (
	"strconv"
	"strings"
	"time"

	casemodels "odontoforense/internal/casefile/models"
	evidencemodels "odontoforense/internal/evidence/models"
	victimmodels "odontoforense/internal/victim/models"
)

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// CaseRecord flattens a case into an export row. The team is rendered as a
// semicolon-separated list of member IDs.
func CaseRecord(c *casemodels.Case) Record {
	team := make([]string, len(c.Team))
	for i, member := range c.Team {
		team[i] = member.String()
	}
	return Record{
		Fields: []string{
			"id", "name", "description", "status", "location", "category",
			"occurred_at", "responsible_expert", "team", "version",
			"created_at", "updated_at",
		},
		Values: []string{
			c.ID.String(), c.Name, c.Description, string(c.Status),
			c.Location, string(c.Category), stamp(c.OccurredAt),
			c.ResponsibleExpert.String(), strings.Join(team, ";"),
			strconv.FormatInt(c.Version, 10), stamp(c.CreatedAt), stamp(c.UpdatedAt),
		},
	}
}

// VictimRecord flattens a victim into an export row.
func VictimRecord(v *victimmodels.Victim) Record {
	age := ""
	if v.EstimatedAge > 0 {
		age = strconv.Itoa(v.EstimatedAge)
	}
	postMortem := ""
	if v.PostMortemOdontogram != nil {
		postMortem = v.PostMortemOdontogram.String()
	}
	return Record{
		Fields: []string{
			"id", "case_id", "victim_code", "identification_status", "name",
			"sex", "estimated_age", "ethnicity", "post_mortem_odontogram",
			"created_at", "updated_at",
		},
		Values: []string{
			v.ID.String(), v.CaseID.String(), v.VictimCode,
			string(v.IdentificationStatus), v.Name, string(v.Sex), age,
			v.Ethnicity, postMortem, stamp(v.CreatedAt), stamp(v.UpdatedAt),
		},
	}
}

// EvidenceRecord flattens an evidence item into an export row. A missing
// location leaves the coordinate cells empty.
func EvidenceRecord(e *evidencemodels.Evidence) Record {
	lat, lon := "", ""
	if e.Location != nil {
		lat = strconv.FormatFloat(e.Location.Latitude, 'f', -1, 64)
		lon = strconv.FormatFloat(e.Location.Longitude, 'f', -1, 64)
	}
	return Record{
		Fields: []string{
			"id", "case_id", "title", "description", "type", "data",
			"category", "collected_by", "latitude", "longitude",
			"created_at", "updated_at",
		},
		Values: []string{
			e.ID.String(), e.CaseID.String(), e.Title, e.Description,
			string(e.Type), e.Data, e.Category, e.CollectedBy.String(),
			lat, lon, stamp(e.CreatedAt), stamp(e.UpdatedAt),
		},
	}
}

// EvidenceTable renders a batch of evidence rows as CSV.
func EvidenceTable(items []*evidencemodels.Evidence) []byte {
	records := make([]Record, len(items))
	for i, e := range items {
		records[i] = EvidenceRecord(e)
	}
	return WriteCSV(records)
}
