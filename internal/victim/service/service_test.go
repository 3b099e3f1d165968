package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odontoforense/internal/audit"
	"odontoforense/internal/policy"
	"odontoforense/internal/victim/models"
	"odontoforense/internal/victim/store"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/requestcontext"
)

var testTime = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

// fakeResolver serves one case's authority and a not-found for everything
// else.
type fakeResolver struct {
	caseID    id.CaseID
	authority policy.CaseAuthority
}

func (f *fakeResolver) AuthorityOf(_ context.Context, caseID id.CaseID) (policy.CaseAuthority, error) {
	if caseID != f.caseID {
		return policy.CaseAuthority{}, dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return f.authority, nil
}

type fakeSweeper struct {
	swept []id.VictimID
}

func (f *fakeSweeper) DeleteByVictim(_ context.Context, victimID id.VictimID) (int, error) {
	f.swept = append(f.swept, victimID)
	return 2, nil
}

type fixture struct {
	svc     *Service
	store   *store.InMemory
	sweeper *fakeSweeper
	audited *audit.InMemoryStore
	caseID  id.CaseID
	expert  id.UserID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	caseID := id.CaseID(uuid.New())
	expert := id.UserID(uuid.New())
	victims := store.NewInMemory()
	sweeper := &fakeSweeper{}
	audited := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(audited)

	svc := New(victims, &fakeResolver{
		caseID:    caseID,
		authority: policy.CaseAuthority{ResponsibleExpert: expert},
	}, sweeper, WithAuditPublisher(publisher))

	return &fixture{
		svc:     svc,
		store:   victims,
		sweeper: sweeper,
		audited: audited,
		caseID:  caseID,
		expert:  expert,
	}
}

func actorContext(userID id.UserID, role id.Role) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	ctx = requestcontext.WithRole(ctx, role)
	return requestcontext.WithTime(ctx, testTime)
}

func validRequest() *models.CreateVictimRequest {
	return &models.CreateVictimRequest{
		VictimCode:           "V-001",
		IdentificationStatus: string(models.StatusNaoIdentificada),
	}
}

func TestCreate(t *testing.T) {
	t.Run("responsible expert creates a victim", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorContext(f.expert, id.RolePerito)

		v, err := f.svc.Create(ctx, f.caseID, validRequest())
		require.NoError(t, err)
		assert.Equal(t, f.caseID, v.CaseID)
		assert.Equal(t, "V-001", v.VictimCode)
		assert.Equal(t, testTime, v.CreatedAt)

		events := f.audited.All()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionVictimCreated, events[0].Action)
	})

	t.Run("admin may create on any case", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorContext(id.UserID(uuid.New()), id.RoleAdmin)

		_, err := f.svc.Create(ctx, f.caseID, validRequest())
		assert.NoError(t, err)
	})

	t.Run("unrelated perito is refused with no side effects", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorContext(id.UserID(uuid.New()), id.RolePerito)

		_, err := f.svc.Create(ctx, f.caseID, validRequest())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		victims, err := f.store.ListByCase(context.Background(), f.caseID)
		require.NoError(t, err)
		assert.Empty(t, victims)

		events := f.audited.All()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionUnauthorized, events[0].Action)
		assert.Equal(t, "denied", events[0].Decision)
	})

	t.Run("duplicate victim code in case", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorContext(f.expert, id.RolePerito)

		_, err := f.svc.Create(ctx, f.caseID, validRequest())
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, f.caseID, validRequest())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown case", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorContext(f.expert, id.RolePerito)

		_, err := f.svc.Create(ctx, id.CaseID(uuid.New()), validRequest())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestUpdate(t *testing.T) {
	t.Run("identification progress requires a name", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorContext(f.expert, id.RolePerito)

		v, err := f.svc.Create(ctx, f.caseID, validRequest())
		require.NoError(t, err)

		req := &models.UpdateVictimRequest{
			VictimCode:           v.VictimCode,
			IdentificationStatus: string(models.StatusIdentificada),
		}
		_, err = f.svc.Update(ctx, v.ID, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		req.Name = "Maria Silva"
		updated, err := f.svc.Update(ctx, v.ID, req)
		require.NoError(t, err)
		assert.Equal(t, models.StatusIdentificada, updated.IdentificationStatus)
		assert.Equal(t, "Maria Silva", updated.Name)
	})

	t.Run("gate evaluated against the owning case", func(t *testing.T) {
		f := newFixture(t)
		expertCtx := actorContext(f.expert, id.RolePerito)

		v, err := f.svc.Create(expertCtx, f.caseID, validRequest())
		require.NoError(t, err)

		outsiderCtx := actorContext(id.UserID(uuid.New()), id.RolePerito)
		_, err = f.svc.Update(outsiderCtx, v.ID, &models.UpdateVictimRequest{
			VictimCode:           v.VictimCode,
			IdentificationStatus: string(models.StatusNaoIdentificada),
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unknown victim", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorContext(f.expert, id.RolePerito)

		_, err := f.svc.Update(ctx, id.VictimID(uuid.New()), &models.UpdateVictimRequest{
			VictimCode:           "V-404",
			IdentificationStatus: string(models.StatusNaoIdentificada),
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestDelete(t *testing.T) {
	t.Run("sweeps odontograms before the victim row", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorContext(f.expert, id.RolePerito)

		v, err := f.svc.Create(ctx, f.caseID, validRequest())
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, v.ID))
		assert.Equal(t, []id.VictimID{v.ID}, f.sweeper.swept)

		_, err = f.svc.Get(ctx, v.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("assistente cannot delete", func(t *testing.T) {
		f := newFixture(t)
		expertCtx := actorContext(f.expert, id.RolePerito)

		v, err := f.svc.Create(expertCtx, f.caseID, validRequest())
		require.NoError(t, err)

		err = f.svc.Delete(actorContext(id.UserID(uuid.New()), id.RoleAssistente), v.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Empty(t, f.sweeper.swept)
	})
}

func TestListByCase(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext(f.expert, id.RolePerito)

	for i, code := range []string{"V-001", "V-002", "V-003"} {
		req := validRequest()
		req.VictimCode = code
		ctx := requestcontext.WithTime(ctx, testTime.Add(time.Duration(i)*time.Second))
		_, err := f.svc.Create(ctx, f.caseID, req)
		require.NoError(t, err)
	}

	victims, err := f.svc.ListByCase(ctx, f.caseID)
	require.NoError(t, err)
	require.Len(t, victims, 3)
}
