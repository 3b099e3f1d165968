//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Package service orchestrates the victim lifecycle. Authority over victims
// derives from the owning case, so every mutation resolves the case's
// authority slice and asks the permission engine before touching state.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"odontoforense/internal/audit"
	"odontoforense/internal/policy"
	"odontoforense/internal/victim/models"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/requestcontext"
)

// VictimStore persists victims.
type VictimStore interface {
	Create(ctx context.Context, v *models.Victim) error
	FindByID(ctx context.Context, victimID id.VictimID) (*models.Victim, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Victim, error)
	Update(ctx context.Context, v *models.Victim) error
	Delete(ctx context.Context, victimID id.VictimID) error
}

// CaseAuthorityResolver answers who holds authority over a case.
type CaseAuthorityResolver interface {
	AuthorityOf(ctx context.Context, caseID id.CaseID) (policy.CaseAuthority, error)
}

// ChartIndex locates a victim's post-mortem odontogram, if one exists. The
// odontogram store implements it; the reference is filled on reads only.
type ChartIndex interface {
	PostMortemOf(ctx context.Context, victimID id.VictimID) (*id.OdontogramID, error)
}

// ChartSweeper removes every odontogram a victim owns; part of the victim
// delete cascade.
type ChartSweeper interface {
	DeleteByVictim(ctx context.Context, victimID id.VictimID) (int, error)
}

// AuditPublisher records audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	victims VictimStore
	cases   CaseAuthorityResolver
	charts  ChartIndex
	sweeper ChartSweeper
	logger  *slog.Logger
	auditor AuditPublisher
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithChartIndex(index ChartIndex) Option {
	return func(s *Service) { s.charts = index }
}

func New(victims VictimStore, cases CaseAuthorityResolver, sweeper ChartSweeper, opts ...Option) *Service {
	s := &Service{
		victims: victims,
		cases:   cases,
		sweeper: sweeper,
		logger:  slog.Default(),
		tracer:  otel.Tracer("odontoforense/victim"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) gate(ctx context.Context, caseID id.CaseID, attempted audit.Action) (policy.Actor, error) {
	actorID := requestcontext.UserID(ctx)
	role := requestcontext.Role(ctx)
	if actorID.IsNil() || !role.IsValid() {
		return policy.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor in context")
	}
	actor := policy.Actor{ID: actorID, Role: role}

	authority, err := s.cases.AuthorityOf(ctx, caseID)
	if err != nil {
		return actor, err
	}
	if !policy.CanManageCase(actor, authority) {
		s.emit(ctx, actor, audit.ActionUnauthorized, caseID, string(attempted), "denied", "actor is neither admin nor responsible expert")
		return actor, dErrors.New(dErrors.CodeUnauthorized, "actor is not allowed to perform this operation")
	}
	return actor, nil
}

// Create registers a victim under a case.
func (s *Service) Create(ctx context.Context, caseID id.CaseID, req *models.CreateVictimRequest) (*models.Victim, error) {
	ctx, span := s.tracer.Start(ctx, "victim.create")
	defer span.End()

	actor, err := s.gate(ctx, caseID, audit.ActionVictimCreated)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	status := models.IdentificationStatus(req.IdentificationStatus)
	v, err := models.NewVictim(id.VictimID(uuid.New()), caseID, req.VictimCode, status, req.Name, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	v.Sex = models.Sex(req.Sex)
	v.EstimatedAge = req.EstimatedAge
	v.Ethnicity = req.Ethnicity

	if err := s.victims.Create(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "victim code already used in this case")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create victim")
	}

	s.emit(ctx, actor, audit.ActionVictimCreated, caseID, v.ID.String(), "applied", "")
	return v, nil
}

// Get returns one victim, with its post-mortem odontogram reference resolved.
func (s *Service) Get(ctx context.Context, victimID id.VictimID) (*models.Victim, error) {
	v, err := s.victims.FindByID(ctx, victimID)
	if err != nil {
		return nil, wrapVictimErr(err)
	}
	s.resolvePostMortem(ctx, v)
	return v, nil
}

// ListByCase returns all victims of a case in creation order.
func (s *Service) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Victim, error) {
	victims, err := s.victims.ListByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list victims")
	}
	for _, v := range victims {
		s.resolvePostMortem(ctx, v)
	}
	return victims, nil
}

// Update replaces the mutable victim fields.
func (s *Service) Update(ctx context.Context, victimID id.VictimID, req *models.UpdateVictimRequest) (*models.Victim, error) {
	ctx, span := s.tracer.Start(ctx, "victim.update")
	defer span.End()

	v, err := s.victims.FindByID(ctx, victimID)
	if err != nil {
		return nil, wrapVictimErr(err)
	}

	actor, err := s.gate(ctx, v.CaseID, audit.ActionVictimUpdated)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	v.ApplyUpdate(req.VictimCode, models.IdentificationStatus(req.IdentificationStatus),
		req.Name, models.Sex(req.Sex), req.EstimatedAge, req.Ethnicity, now)

	if err := s.victims.Update(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "victim code already used in this case")
		}
		return nil, wrapVictimErr(err)
	}

	s.emit(ctx, actor, audit.ActionVictimUpdated, v.CaseID, v.ID.String(), "applied", "")
	s.resolvePostMortem(ctx, v)
	return v, nil
}

// Delete removes a victim and its odontograms.
func (s *Service) Delete(ctx context.Context, victimID id.VictimID) error {
	ctx, span := s.tracer.Start(ctx, "victim.delete")
	defer span.End()

	v, err := s.victims.FindByID(ctx, victimID)
	if err != nil {
		return wrapVictimErr(err)
	}

	actor, err := s.gate(ctx, v.CaseID, audit.ActionVictimDeleted)
	if err != nil {
		return err
	}

	if s.sweeper != nil {
		if _, err := s.sweeper.DeleteByVictim(ctx, victimID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete victim odontograms")
		}
	}
	if err := s.victims.Delete(ctx, victimID); err != nil {
		return wrapVictimErr(err)
	}

	s.emit(ctx, actor, audit.ActionVictimDeleted, v.CaseID, v.ID.String(), "applied", "")
	return nil
}

func (s *Service) resolvePostMortem(ctx context.Context, v *models.Victim) {
	if s.charts == nil {
		return
	}
	ref, err := s.charts.PostMortemOf(ctx, v.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve post-mortem odontogram",
			"victim_id", v.ID.String(),
			"error", err,
		)
		return
	}
	v.PostMortemOdontogram = ref
}

func (s *Service) emit(ctx context.Context, actor policy.Actor, action audit.Action, caseID id.CaseID, subject, decision, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Action:    action,
		CaseID:    caseID,
		Subject:   subject,
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(action),
			"error", err,
		)
	}
}

func wrapVictimErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "victim not found")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "victim store failure")
}
