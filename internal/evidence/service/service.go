//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Package service orchestrates evidence items. Authority derives from the
// owning case; the geotag invariant (never dropped by omission) is enforced
// during update.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"odontoforense/internal/audit"
	"odontoforense/internal/evidence/models"
	"odontoforense/internal/policy"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/requestcontext"
)

// EvidenceStore persists evidence items.
type EvidenceStore interface {
	Create(ctx context.Context, e *models.Evidence) error
	FindByID(ctx context.Context, evidenceID id.EvidenceID) (*models.Evidence, error)
	FindByIDs(ctx context.Context, ids []id.EvidenceID) ([]*models.Evidence, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Evidence, error)
	Update(ctx context.Context, e *models.Evidence) error
	Delete(ctx context.Context, evidenceID id.EvidenceID) error
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
	evidences EvidenceStore
	cases     CaseAuthorityResolver
	logger    *slog.Logger
	auditor   AuditPublisher
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func New(evidences EvidenceStore, cases CaseAuthorityResolver, opts ...Option) *Service {
	s := &Service{
		evidences: evidences,
		cases:     cases,
		logger:    slog.Default(),
		tracer:    otel.Tracer("odontoforense/evidence"),
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

// Create registers an evidence item under a case. The authenticated actor is
// recorded as the collector.
func (s *Service) Create(ctx context.Context, caseID id.CaseID, req *models.CreateEvidenceRequest) (*models.Evidence, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.create")
	defer span.End()

	actor, err := s.gate(ctx, caseID, audit.ActionEvidenceCreated)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	e, err := models.NewEvidence(id.EvidenceID(uuid.New()), caseID, req.Title,
		models.EvidenceType(req.Type), req.Data, actor.ID, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	e.Description = req.Description
	e.Category = req.Category
	if req.Location != nil {
		if err := e.AttachLocation(*req.Location, now); err != nil {
			return nil, err
		}
	}

	if err := s.evidences.Create(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create evidence")
	}

	s.emit(ctx, actor, audit.ActionEvidenceCreated, caseID, e.ID.String(), "applied", "")
	return e, nil
}

// Get returns one evidence item.
func (s *Service) Get(ctx context.Context, evidenceID id.EvidenceID) (*models.Evidence, error) {
	e, err := s.evidences.FindByID(ctx, evidenceID)
	if err != nil {
		return nil, wrapEvidenceErr(err)
	}
	return e, nil
}

// ListByCase returns all evidence items of a case in creation order.
func (s *Service) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Evidence, error) {
	items, err := s.evidences.ListByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list evidences")
	}
	return items, nil
}

// Batch resolves a set of evidence items by ID; every requested item must
// exist. Export feeds on this.
func (s *Service) Batch(ctx context.Context, ids []id.EvidenceID) ([]*models.Evidence, error) {
	if len(ids) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one evidence id is required")
	}
	items, err := s.evidences.FindByIDs(ctx, ids)
	if err != nil {
		return nil, wrapEvidenceErr(err)
	}
	return items, nil
}

// Update replaces the descriptive fields. A geotagged item keeps its location
// unless the request clears it explicitly; silently omitting it is rejected.
func (s *Service) Update(ctx context.Context, evidenceID id.EvidenceID, req *models.UpdateEvidenceRequest) (*models.Evidence, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.update")
	defer span.End()

	e, err := s.evidences.FindByID(ctx, evidenceID)
	if err != nil {
		return nil, wrapEvidenceErr(err)
	}

	actor, err := s.gate(ctx, e.CaseID, audit.ActionEvidenceUpdated)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if e.Location != nil && req.Location == nil && !req.ClearLocation {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence carries a location; resend it or set clear_location")
	}

	now := requestcontext.Now(ctx)
	e.ApplyUpdate(req.Title, req.Description, models.EvidenceType(req.Type), req.Data, req.Category, now)
	if req.ClearLocation {
		e.ClearLocation(now)
	} else if req.Location != nil {
		if err := e.AttachLocation(*req.Location, now); err != nil {
			return nil, err
		}
	}

	if err := s.evidences.Update(ctx, e); err != nil {
		return nil, wrapEvidenceErr(err)
	}

	s.emit(ctx, actor, audit.ActionEvidenceUpdated, e.CaseID, e.ID.String(), "applied", "")
	return e, nil
}

// Delete removes an evidence item.
func (s *Service) Delete(ctx context.Context, evidenceID id.EvidenceID) error {
	ctx, span := s.tracer.Start(ctx, "evidence.delete")
	defer span.End()

	e, err := s.evidences.FindByID(ctx, evidenceID)
	if err != nil {
		return wrapEvidenceErr(err)
	}

	actor, err := s.gate(ctx, e.CaseID, audit.ActionEvidenceDeleted)
	if err != nil {
		return err
	}

	if err := s.evidences.Delete(ctx, evidenceID); err != nil {
		return wrapEvidenceErr(err)
	}

	s.emit(ctx, actor, audit.ActionEvidenceDeleted, e.CaseID, e.ID.String(), "applied", "")
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

func wrapEvidenceErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "evidence not found")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "evidence store failure")
}
