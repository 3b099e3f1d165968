//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Package service orchestrates odontogram charts. A chart belongs to a victim
// and, through it, to a case; authority is resolved against the owning case
// for every mutation. The post-mortem uniqueness rule lives in the stores and
// is translated here into the duplicate_post_mortem error.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"odontoforense/internal/audit"
	"odontoforense/internal/odontogram/models"
	"odontoforense/internal/policy"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/requestcontext"
)

// ChartStore persists odontograms.
type ChartStore interface {
	Create(ctx context.Context, o *models.Odontogram) error
	FindByID(ctx context.Context, chartID id.OdontogramID) (*models.Odontogram, error)
	ListByVictim(ctx context.Context, victimID id.VictimID) ([]*models.Odontogram, error)
	Update(ctx context.Context, o *models.Odontogram) error
	Delete(ctx context.Context, chartID id.OdontogramID) error
}

// VictimDirectory resolves a victim to its owning case. The victim store
// implements it.
type VictimDirectory interface {
	CaseOf(ctx context.Context, victimID id.VictimID) (id.CaseID, error)
}

// CaseAuthorityResolver answers who holds authority over a case.
type CaseAuthorityResolver interface {
	AuthorityOf(ctx context.Context, caseID id.CaseID) (policy.CaseAuthority, error)
}

// AuditPublisher records audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	charts  ChartStore
	victims VictimDirectory
	cases   CaseAuthorityResolver
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

func New(charts ChartStore, victims VictimDirectory, cases CaseAuthorityResolver, opts ...Option) *Service {
	s := &Service{
		charts:  charts,
		victims: victims,
		cases:   cases,
		logger:  slog.Default(),
		tracer:  otel.Tracer("odontoforense/odontogram"),
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

// Create opens a chart for a victim. All 32 positions exist from birth;
// positions absent from the request default to nao_examinado. A second
// post-mortem chart for the same victim is refused.
func (s *Service) Create(ctx context.Context, victimID id.VictimID, req *models.CreateChartRequest) (*models.Odontogram, error) {
	ctx, span := s.tracer.Start(ctx, "odontogram.create")
	defer span.End()

	caseID, err := s.victims.CaseOf(ctx, victimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "victim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve victim")
	}

	actor, err := s.gate(ctx, caseID, audit.ActionChartCreated)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	chartType := models.ChartType(req.Type)
	o, err := models.NewChart(id.OdontogramID(uuid.New()), victimID, caseID, chartType, req.ExaminationDate, req.Seed(), now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	o.GeneralObservations = req.GeneralObservations
	o.SummaryForIdentification = req.SummaryForIdentification

	if err := s.charts.Create(ctx, o); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) && chartType == models.TypePostMortem {
			return nil, dErrors.New(dErrors.CodeDuplicatePostMortem, "victim already has a post-mortem odontogram")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create odontogram")
	}

	s.emit(ctx, actor, audit.ActionChartCreated, caseID, o.ID.String(), "applied", "")
	return o, nil
}

// Get returns one chart.
func (s *Service) Get(ctx context.Context, chartID id.OdontogramID) (*models.Odontogram, error) {
	o, err := s.charts.FindByID(ctx, chartID)
	if err != nil {
		return nil, wrapChartErr(err)
	}
	return o, nil
}

// ListByVictim returns all of a victim's charts in creation order.
func (s *Service) ListByVictim(ctx context.Context, victimID id.VictimID) ([]*models.Odontogram, error) {
	if _, err := s.victims.CaseOf(ctx, victimID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "victim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve victim")
	}
	charts, err := s.charts.ListByVictim(ctx, victimID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list odontograms")
	}
	return charts, nil
}

// Update replaces the chart-level fields. The request carries the version the
// caller last observed; a mismatch is reported as a version conflict.
func (s *Service) Update(ctx context.Context, chartID id.OdontogramID, req *models.UpdateChartRequest) (*models.Odontogram, error) {
	ctx, span := s.tracer.Start(ctx, "odontogram.update")
	defer span.End()

	o, err := s.charts.FindByID(ctx, chartID)
	if err != nil {
		return nil, wrapChartErr(err)
	}

	actor, err := s.gate(ctx, o.CaseID, audit.ActionChartUpdated)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Version != o.Version {
		return nil, dErrors.Newf(dErrors.CodeVersionConflict, "odontogram changed since version %d was read", req.Version)
	}

	now := requestcontext.Now(ctx)
	o.ApplyUpdate(req.ExaminationDate, req.GeneralObservations, req.SummaryForIdentification, now)

	if err := s.charts.Update(ctx, o); err != nil {
		return nil, wrapChartErr(err)
	}

	s.emit(ctx, actor, audit.ActionChartUpdated, o.CaseID, o.ID.String(), "applied", "")
	return o, nil
}

// UpdateTooth replaces the finding at one FDI position. The chart never grows
// or shrinks; the edit bumps the chart version like any other mutation.
func (s *Service) UpdateTooth(ctx context.Context, chartID id.OdontogramID, fdi string, req *models.UpdateToothRequest) (*models.Odontogram, error) {
	ctx, span := s.tracer.Start(ctx, "odontogram.update_tooth")
	defer span.End()

	if _, err := models.ParseFDI(fdi); err != nil {
		return nil, err
	}

	o, err := s.charts.FindByID(ctx, chartID)
	if err != nil {
		return nil, wrapChartErr(err)
	}

	actor, err := s.gate(ctx, o.CaseID, audit.ActionToothUpdated)
	if err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Version != o.Version {
		return nil, dErrors.Newf(dErrors.CodeVersionConflict, "odontogram changed since version %d was read", req.Version)
	}

	now := requestcontext.Now(ctx)
	if err := o.SetTooth(fdi, models.ToothStatus(req.Status), req.Observations, now); err != nil {
		return nil, err
	}

	if err := s.charts.Update(ctx, o); err != nil {
		return nil, wrapChartErr(err)
	}

	s.emit(ctx, actor, audit.ActionToothUpdated, o.CaseID, fdi, "applied", "")
	return o, nil
}

// Delete removes a chart.
func (s *Service) Delete(ctx context.Context, chartID id.OdontogramID) error {
	ctx, span := s.tracer.Start(ctx, "odontogram.delete")
	defer span.End()

	o, err := s.charts.FindByID(ctx, chartID)
	if err != nil {
		return wrapChartErr(err)
	}

	actor, err := s.gate(ctx, o.CaseID, audit.ActionChartDeleted)
	if err != nil {
		return err
	}

	if err := s.charts.Delete(ctx, chartID); err != nil {
		return wrapChartErr(err)
	}

	s.emit(ctx, actor, audit.ActionChartDeleted, o.CaseID, o.ID.String(), "applied", "")
	return nil
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

func wrapChartErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "odontogram not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeVersionConflict, "odontogram changed since it was read")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "odontogram store failure")
}
