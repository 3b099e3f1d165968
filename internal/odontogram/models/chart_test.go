package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

var (
	testTime = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	examDate = time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
)

func newTestChart(t *testing.T, seed map[string]ToothRecord) *Odontogram {
	t.Helper()
	chart, err := NewChart(
		id.OdontogramID(uuid.New()),
		id.VictimID(uuid.New()),
		id.CaseID(uuid.New()),
		TypePostMortem,
		examDate,
		seed,
		testTime,
	)
	require.NoError(t, err)
	return chart
}

func TestCanonicalFDI(t *testing.T) {
	assert.Len(t, CanonicalFDI, 32)

	seen := map[string]bool{}
	for _, fdi := range CanonicalFDI {
		assert.False(t, seen[fdi], "duplicate FDI %s", fdi)
		seen[fdi] = true
	}

	// quadrant boundaries in reading order
	assert.Equal(t, "18", CanonicalFDI[0])
	assert.Equal(t, "11", CanonicalFDI[7])
	assert.Equal(t, "21", CanonicalFDI[8])
	assert.Equal(t, "28", CanonicalFDI[15])
	assert.Equal(t, "48", CanonicalFDI[16])
	assert.Equal(t, "41", CanonicalFDI[23])
	assert.Equal(t, "31", CanonicalFDI[24])
	assert.Equal(t, "38", CanonicalFDI[31])
}

func TestParseFDI(t *testing.T) {
	for _, fdi := range CanonicalFDI {
		_, err := ParseFDI(fdi)
		assert.NoError(t, err)
	}
	for _, bad := range []string{"", "19", "29", "50", "10", "99", "1", "181"} {
		_, err := ParseFDI(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFDI), "expected invalid FDI for %q", bad)
	}
}

func TestNewChart(t *testing.T) {
	t.Run("seeded position kept, rest default to unexamined", func(t *testing.T) {
		chart := newTestChart(t, map[string]ToothRecord{
			"11": {Status: ToothPresenteCariado, Observations: "cárie oclusal"},
		})

		require.Len(t, chart.Teeth, 32)
		assert.True(t, chart.Complete())

		assert.Equal(t, ToothPresenteCariado, chart.Teeth["11"].Status)
		assert.Equal(t, "cárie oclusal", chart.Teeth["11"].Observations)
		assert.Equal(t, "11", chart.Teeth["11"].FDI)

		assert.Equal(t, ToothNaoExaminado, chart.Teeth["31"].Status)
		assert.Empty(t, chart.Teeth["31"].Observations)
	})

	t.Run("empty seed yields a fully unexamined chart", func(t *testing.T) {
		chart := newTestChart(t, nil)
		require.Len(t, chart.Teeth, 32)
		for _, fdi := range CanonicalFDI {
			assert.Equal(t, ToothNaoExaminado, chart.Teeth[fdi].Status)
		}
		assert.EqualValues(t, 1, chart.Version)
	})

	t.Run("seed outside the canonical set is rejected", func(t *testing.T) {
		_, err := NewChart(
			id.OdontogramID(uuid.New()), id.VictimID(uuid.New()), id.CaseID(uuid.New()),
			TypePostMortem, examDate,
			map[string]ToothRecord{"55": {Status: ToothPresenteHigido}},
			testTime,
		)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFDI))
	})

	t.Run("required fields", func(t *testing.T) {
		_, err := NewChart(id.OdontogramID(uuid.New()), id.VictimID{}, id.CaseID(uuid.New()),
			TypePostMortem, examDate, nil, testTime)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewChart(id.OdontogramID(uuid.New()), id.VictimID(uuid.New()), id.CaseID(uuid.New()),
			ChartType("parcial"), examDate, nil, testTime)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewChart(id.OdontogramID(uuid.New()), id.VictimID(uuid.New()), id.CaseID(uuid.New()),
			TypePostMortem, time.Time{}, nil, testTime)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestSetTooth(t *testing.T) {
	chart := newTestChart(t, nil)
	later := testTime.Add(time.Hour)

	t.Run("updates a single position", func(t *testing.T) {
		require.NoError(t, chart.SetTooth("16", ToothAusenteExtraido, "extração antiga", later))
		assert.Equal(t, ToothAusenteExtraido, chart.Teeth["16"].Status)
		assert.Equal(t, later, chart.UpdatedAt)
		assert.Len(t, chart.Teeth, 32)
	})

	t.Run("rejects positions outside the chart", func(t *testing.T) {
		err := chart.SetTooth("64", ToothPresenteHigido, "", later)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFDI))
	})

	t.Run("reset returns the position to the default", func(t *testing.T) {
		require.NoError(t, chart.ResetTooth("16", later))
		assert.Equal(t, ToothNaoExaminado, chart.Teeth["16"].Status)
		assert.Empty(t, chart.Teeth["16"].Observations)
		assert.Len(t, chart.Teeth, 32)
	})
}

func TestDraft(t *testing.T) {
	victimID := id.VictimID(uuid.New())
	caseID := id.CaseID(uuid.New())

	t.Run("staged findings survive commit, rest default", func(t *testing.T) {
		draft := NewDraft(victimID, caseID, TypeAnteMortem)
		draft.ExaminationDate = examDate
		require.NoError(t, draft.SetTooth("11", ToothPresenteRestaurado, "resina"))
		require.NoError(t, draft.SetTooth("48", ToothAusenteExtraido, ""))
		assert.Equal(t, 2, draft.Staged())

		chart, err := draft.Commit(id.OdontogramID(uuid.New()), testTime)
		require.NoError(t, err)
		assert.Len(t, chart.Teeth, 32)
		assert.Equal(t, ToothPresenteRestaurado, chart.Teeth["11"].Status)
		assert.Equal(t, ToothAusenteExtraido, chart.Teeth["48"].Status)
		assert.Equal(t, ToothNaoExaminado, chart.Teeth["12"].Status)
	})

	t.Run("bad position rejected at staging time", func(t *testing.T) {
		draft := NewDraft(victimID, caseID, TypeAnteMortem)
		err := draft.SetTooth("90", ToothPresenteHigido, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFDI))
		assert.Equal(t, 0, draft.Staged())
	})

	t.Run("cleared finding reverts to default on commit", func(t *testing.T) {
		draft := NewDraft(victimID, caseID, TypeAnteMortem)
		draft.ExaminationDate = examDate
		require.NoError(t, draft.SetTooth("11", ToothImplante, ""))
		require.NoError(t, draft.ClearTooth("11"))

		chart, err := draft.Commit(id.OdontogramID(uuid.New()), testTime)
		require.NoError(t, err)
		assert.Equal(t, ToothNaoExaminado, chart.Teeth["11"].Status)
	})

	t.Run("commit without examination date fails", func(t *testing.T) {
		draft := NewDraft(victimID, caseID, TypePostMortem)
		_, err := draft.Commit(id.OdontogramID(uuid.New()), testTime)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}
