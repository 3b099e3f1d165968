package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"odontoforense/internal/casefile/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
)

type CaseStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CaseStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCaseStoreSuite(t *testing.T) {
	suite.Run(t, new(CaseStoreSuite))
}

func (s *CaseStoreSuite) newCase(name string) *models.Case {
	now := time.Now().UTC()
	return &models.Case{
		ID:                id.CaseID(uuid.New()),
		Name:              name,
		Status:            models.CaseStatusEmAndamento,
		Location:          "Recife, PE",
		Category:          models.CategoryIdentificacao,
		OccurredAt:        now.Add(-24 * time.Hour),
		ResponsibleExpert: id.UserID(uuid.New()),
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *CaseStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds case by ID", func() {
		c := s.newCase("Caso A")
		s.Require().NoError(s.store.Create(s.ctx, c))

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(c.Name, found.Name)
		s.Equal(c.ResponsibleExpert, found.ResponsibleExpert)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.CaseID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ID", func() {
		c := s.newCase("Caso B")
		s.Require().NoError(s.store.Create(s.ctx, c))
		s.ErrorIs(s.store.Create(s.ctx, c), sentinel.ErrAlreadyExists)
	})

	s.Run("returned case is a copy", func() {
		c := s.newCase("Caso C")
		c.Team = []id.UserID{id.UserID(uuid.New())}
		s.Require().NoError(s.store.Create(s.ctx, c))

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		found.Name = "mutated"
		found.Team[0] = id.UserID(uuid.New())

		again, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("Caso C", again.Name)
		s.Equal(c.Team[0], again.Team[0])
	})
}

func (s *CaseStoreSuite) TestList() {
	seed := func(name string, status models.CaseStatus, category models.CaseCategory, createdAt time.Time) *models.Case {
		c := s.newCase(name)
		c.Status = status
		c.Category = category
		c.CreatedAt = createdAt
		s.Require().NoError(s.store.Create(s.ctx, c))
		return c
	}

	base := time.Now().UTC()
	older := seed("Incêndio no centro", models.CaseStatusEmAndamento, models.CategoryAcidente, base.Add(-2*time.Hour))
	newer := seed("Exame de arcada", models.CaseStatusFinalizado, models.CategoryExameCriminal, base.Add(-1*time.Hour))
	newest := seed("Vítima de incêndio", models.CaseStatusEmAndamento, models.CategoryIdentificacao, base)

	s.Run("orders most recent first", func() {
		cases, err := s.store.List(s.ctx, models.ListFilter{})
		s.Require().NoError(err)
		s.Require().Len(cases, 3)
		s.Equal(newest.ID, cases[0].ID)
		s.Equal(newer.ID, cases[1].ID)
		s.Equal(older.ID, cases[2].ID)
	})

	s.Run("filters by name substring, case-insensitive", func() {
		cases, err := s.store.List(s.ctx, models.ListFilter{NameContains: "INCÊNDIO"})
		s.Require().NoError(err)
		s.Len(cases, 2)
	})

	s.Run("filters by status and category", func() {
		cases, err := s.store.List(s.ctx, models.ListFilter{Status: models.CaseStatusFinalizado})
		s.Require().NoError(err)
		s.Require().Len(cases, 1)
		s.Equal(newer.ID, cases[0].ID)

		cases, err = s.store.List(s.ctx, models.ListFilter{Category: models.CategoryIdentificacao})
		s.Require().NoError(err)
		s.Require().Len(cases, 1)
		s.Equal(newest.ID, cases[0].ID)
	})

	s.Run("applies limit after ordering", func() {
		cases, err := s.store.List(s.ctx, models.ListFilter{Limit: 2})
		s.Require().NoError(err)
		s.Require().Len(cases, 2)
		s.Equal(newest.ID, cases[0].ID)
	})
}

func (s *CaseStoreSuite) TestUpdateVersioning() {
	s.Run("persists changes and bumps version", func() {
		c := s.newCase("Caso versionado")
		s.Require().NoError(s.store.Create(s.ctx, c))

		c.Name = "Caso renomeado"
		s.Require().NoError(s.store.Update(s.ctx, c))
		s.EqualValues(2, c.Version)

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("Caso renomeado", found.Name)
		s.EqualValues(2, found.Version)
	})

	s.Run("rejects stale version", func() {
		c := s.newCase("Caso disputado")
		s.Require().NoError(s.store.Create(s.ctx, c))

		first, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		second, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)

		first.Name = "primeiro escritor"
		s.Require().NoError(s.store.Update(s.ctx, first))

		second.Name = "segundo escritor"
		s.ErrorIs(s.store.Update(s.ctx, second), sentinel.ErrConflict)

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("primeiro escritor", found.Name)
	})

	s.Run("update of unknown case", func() {
		c := s.newCase("fantasma")
		s.ErrorIs(s.store.Update(s.ctx, c), sentinel.ErrNotFound)
	})
}

func (s *CaseStoreSuite) TestExecute() {
	member := id.UserID(uuid.New())

	s.Run("validate then mutate under one lock", func() {
		c := s.newCase("Caso com equipe")
		s.Require().NoError(s.store.Create(s.ctx, c))

		updated, err := s.store.Execute(s.ctx, c.ID,
			func(cur *models.Case) error { return cur.CanAddMember(member) },
			func(cur *models.Case) { cur.ApplyAddMember(member, time.Now()) },
		)
		s.Require().NoError(err)
		s.True(updated.HasMember(member))
		s.EqualValues(2, updated.Version)

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.True(found.HasMember(member))
	})

	s.Run("validation failure leaves state untouched", func() {
		c := s.newCase("Caso intacto")
		s.Require().NoError(s.store.Create(s.ctx, c))

		_, err := s.store.Execute(s.ctx, c.ID,
			func(cur *models.Case) error { return cur.CanRemoveMember(member) },
			func(cur *models.Case) { cur.ApplyRemoveMember(member, time.Now()) },
		)
		s.Require().Error(err)

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.EqualValues(1, found.Version)
	})

	s.Run("unknown case", func() {
		_, err := s.store.Execute(s.ctx, id.CaseID(uuid.New()),
			func(*models.Case) error { return nil },
			func(*models.Case) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CaseStoreSuite) TestDelete() {
	s.Run("deletes existing case", func() {
		c := s.newCase("Caso a excluir")
		s.Require().NoError(s.store.Create(s.ctx, c))
		s.Require().NoError(s.store.Delete(s.ctx, c.ID))

		_, err := s.store.FindByID(s.ctx, c.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("delete of unknown case", func() {
		s.ErrorIs(s.store.Delete(s.ctx, id.CaseID(uuid.New())), sentinel.ErrNotFound)
	})
}
