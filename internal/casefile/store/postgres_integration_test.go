//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"odontoforense/internal/casefile/models"
	"odontoforense/internal/casefile/store"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	tx       *store.PostgresTx
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.tx = store.NewPostgresTx(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "case_team_members", "cases")
	s.Require().NoError(err)
}

func newTestCase(name string) *models.Case {
	now := time.Now().UTC().Truncate(time.Microsecond)
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

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := newTestCase("Caso postgres")
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Name, found.Name)
	s.Equal(c.Status, found.Status)
	s.Equal(c.ResponsibleExpert, found.ResponsibleExpert)
	s.Empty(found.Team)
	s.EqualValues(1, found.Version)

	s.ErrorIs(s.store.Create(ctx, c), sentinel.ErrAlreadyExists)

	_, err = s.store.FindByID(ctx, id.CaseID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()

	a := newTestCase("Incêndio residencial")
	a.Category = models.CategoryAcidente
	s.Require().NoError(s.store.Create(ctx, a))

	b := newTestCase("Exame de arcada dentária")
	b.Status = models.CaseStatusFinalizado
	b.Category = models.CategoryExameCriminal
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, b))

	cases, err := s.store.List(ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(cases, 2)
	s.Equal(b.ID, cases[0].ID)

	cases, err = s.store.List(ctx, models.ListFilter{NameContains: "incêndio"})
	s.Require().NoError(err)
	s.Require().Len(cases, 1)
	s.Equal(a.ID, cases[0].ID)

	cases, err = s.store.List(ctx, models.ListFilter{Status: models.CaseStatusFinalizado})
	s.Require().NoError(err)
	s.Require().Len(cases, 1)
	s.Equal(b.ID, cases[0].ID)

	cases, err = s.store.List(ctx, models.ListFilter{Limit: 1})
	s.Require().NoError(err)
	s.Len(cases, 1)
}

func (s *PostgresStoreSuite) TestOptimisticUpdate() {
	ctx := context.Background()
	c := newTestCase("Caso disputado")
	s.Require().NoError(s.store.Create(ctx, c))

	first, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	second, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)

	first.Name = "primeiro escritor"
	s.Require().NoError(s.store.Update(ctx, first))
	s.EqualValues(2, first.Version)

	second.Name = "segundo escritor"
	s.ErrorIs(s.store.Update(ctx, second), sentinel.ErrConflict)

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("primeiro escritor", found.Name)
}

// TestConcurrentExecute verifies that concurrent team additions of the same
// member result in exactly one success under row locking.
func (s *PostgresStoreSuite) TestConcurrentExecute() {
	ctx := context.Background()
	c := newTestCase("Caso concorrente")
	s.Require().NoError(s.store.Create(ctx, c))

	member := id.UserID(uuid.New())
	const goroutines = 10

	var wg sync.WaitGroup
	var successCount, duplicateCount atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, c.ID,
				func(cur *models.Case) error { return cur.CanAddMember(member) },
				func(cur *models.Case) { cur.ApplyAddMember(member, time.Now()) },
			)
			switch {
			case err == nil:
				successCount.Add(1)
			default:
				duplicateCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.EqualValues(1, successCount.Load())
	s.EqualValues(goroutines-1, duplicateCount.Load())

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(found.Team, 1)
	s.Equal(member, found.Team[0])
	s.EqualValues(2, found.Version)
}

func (s *PostgresStoreSuite) TestDeleteInsideTransaction() {
	ctx := context.Background()
	c := newTestCase("Caso a excluir")
	s.Require().NoError(s.store.Create(ctx, c))

	member := id.UserID(uuid.New())
	_, err := s.store.Execute(ctx, c.ID,
		func(cur *models.Case) error { return cur.CanAddMember(member) },
		func(cur *models.Case) { cur.ApplyAddMember(member, time.Now()) },
	)
	s.Require().NoError(err)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.store.Delete(txCtx, c.ID)
	})
	s.Require().NoError(err)

	_, err = s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestTransactionRollback() {
	ctx := context.Background()
	c := newTestCase("Caso preservado")
	s.Require().NoError(s.store.Create(ctx, c))

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Delete(txCtx, c.ID); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	s.Require().Error(err)

	// delete was rolled back with the transaction
	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)
}
