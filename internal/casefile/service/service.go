//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"odontoforense/internal/audit"
	casemetrics "odontoforense/internal/casefile/metrics"
	"odontoforense/internal/casefile/models"
	"odontoforense/internal/policy"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/requestcontext"
)

// CaseStore persists the case aggregate.
type CaseStore interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error)
	Delete(ctx context.Context, caseID id.CaseID) error
}

// CascadeStore removes every record a store holds for a case. Implemented by
// the victim, odontogram and evidence stores so case deletion can sweep its
// descendants inside one transaction.
type CascadeStore interface {
	DeleteByCase(ctx context.Context, caseID id.CaseID) (int, error)
}

// TeamDirectory answers role questions about identities, without this
// package depending on the identity feature's models.
type TeamDirectory interface {
	RoleOf(ctx context.Context, userID id.UserID) (id.Role, error)
}

// AuditPublisher records audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StoreTx provides a transactional boundary spanning the case store and the
// cascade stores. Implementations wrap a database transaction or, in-memory,
// a coarse lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Analyzer is the external AI collaborator the analyze operation passes
// through to.
type Analyzer interface {
	Analyze(ctx context.Context, caseID id.CaseID, action string) (string, error)
}

// Service orchestrates the case lifecycle. Every mutation consults the
// permission engine before touching state.
type Service struct {
	cases     CaseStore
	victims   CascadeStore
	charts    CascadeStore
	evidences CascadeStore
	directory TeamDirectory
	tx        StoreTx
	analyzer  Analyzer
	logger    *slog.Logger
	auditor   AuditPublisher
	metrics   *casemetrics.Metrics
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *casemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAnalyzer(a Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// New constructs a Service.
func New(cases CaseStore, victims, charts, evidences CascadeStore, directory TeamDirectory, tx StoreTx, opts ...Option) *Service {
	s := &Service{
		cases:     cases,
		victims:   victims,
		charts:    charts,
		evidences: evidences,
		directory: directory,
		tx:        tx,
		logger:    slog.Default(),
		tracer:    otel.Tracer("odontoforense/casefile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// actorFromContext rebuilds the acting identity the auth middleware stashed.
func actorFromContext(ctx context.Context) (policy.Actor, error) {
	actorID := requestcontext.UserID(ctx)
	role := requestcontext.Role(ctx)
	if actorID.IsNil() || !role.IsValid() {
		return policy.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor in context")
	}
	return policy.Actor{ID: actorID, Role: role}, nil
}

// Create opens a new case with the acting perito as responsible expert.
func (s *Service) Create(ctx context.Context, req *models.CreateCaseRequest) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "case.create")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !policy.CanCreateCase(actor) {
		return nil, s.deny(ctx, actor, audit.ActionCaseCreated, id.CaseID{}, "role cannot open cases")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c, err := models.NewCase(
		id.CaseID(uuid.New()),
		req.Name,
		models.CaseStatus(req.Status),
		req.Location,
		models.CaseCategory(req.Category),
		req.OccurredAt,
		actor.ID,
		now,
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	c.Description = req.Description

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
	}

	s.emit(ctx, actor, audit.ActionCaseCreated, c.ID, "", "applied", "")
	s.metrics.IncrementCasesCreated()
	return c, nil
}

// Get returns one case with its team.
func (s *Service) Get(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, wrapCaseErr(err)
	}
	return c, nil
}

// List returns cases matching the filter, most recent first.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Case, error) {
	cases, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	return cases, nil
}

// Update replaces the mutable case fields, rejecting stale writes.
func (s *Service) Update(ctx context.Context, caseID id.CaseID, req *models.UpdateCaseRequest) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "case.update")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, wrapCaseErr(err)
	}
	if !policy.CanManageCase(actor, c.Authority()) {
		return nil, s.deny(ctx, actor, audit.ActionCaseUpdated, caseID, "actor is neither admin nor responsible expert")
	}
	if req.Version != c.Version {
		return nil, dErrors.New(dErrors.CodeVersionConflict, "case was modified since it was read")
	}

	now := requestcontext.Now(ctx)
	c.ApplyUpdate(req.Name, req.Description, models.CaseStatus(req.Status), req.Location, models.CaseCategory(req.Category), req.OccurredAt, now)

	if err := s.cases.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeVersionConflict, "case was modified since it was read")
		}
		return nil, wrapCaseErr(err)
	}

	s.emit(ctx, actor, audit.ActionCaseUpdated, caseID, "", "applied", "")
	return c, nil
}

// Delete removes a case and everything it owns. The cascade runs inside one
// transaction: either the case, its victims, their odontograms and its
// evidence all go, or none do.
func (s *Service) Delete(ctx context.Context, caseID id.CaseID) error {
	ctx, span := s.tracer.Start(ctx, "case.delete")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return wrapCaseErr(err)
	}
	if !policy.CanManageCase(actor, c.Authority()) {
		return s.deny(ctx, actor, audit.ActionCaseDeleted, caseID, "actor is neither admin nor responsible expert")
	}

	var removed int
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		// Odontograms go before victims so no chart ever outlives its victim
		// even inside a partially-applied memory transaction.
		n, err := s.charts.DeleteByCase(txCtx, caseID)
		if err != nil {
			return err
		}
		removed += n
		n, err = s.victims.DeleteByCase(txCtx, caseID)
		if err != nil {
			return err
		}
		removed += n
		n, err = s.evidences.DeleteByCase(txCtx, caseID)
		if err != nil {
			return err
		}
		removed += n
		return s.cases.Delete(txCtx, caseID)
	})
	if err != nil {
		return wrapCaseErr(err)
	}

	s.emit(ctx, actor, audit.ActionCaseDeleted, caseID, "", "applied", "")
	s.metrics.IncrementCasesDeleted()
	s.metrics.ObserveCascade(removed)
	return nil
}

// AuthorityOf resolves the permission-relevant slice of a case. Victim,
// odontogram and evidence services gate their mutations through this, since
// authority over sub-entities derives from the owning case.
func (s *Service) AuthorityOf(ctx context.Context, caseID id.CaseID) (policy.CaseAuthority, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return policy.CaseAuthority{}, wrapCaseErr(err)
	}
	return c.Authority(), nil
}

// Capabilities computes the actor's capability set over one case.
func (s *Service) Capabilities(ctx context.Context, caseID id.CaseID, surface policy.Surface) (policy.Capabilities, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return policy.Capabilities{}, err
	}
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return policy.Capabilities{}, wrapCaseErr(err)
	}
	return policy.CapabilitiesFor(actor, c.Authority(), surface), nil
}

// Analyze passes the case to the external analysis collaborator and returns
// its free-text result verbatim. Transport failures surface as-is and are
// never retried here.
func (s *Service) Analyze(ctx context.Context, caseID id.CaseID, action string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "case.analyze")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		return "", err
	}
	if s.analyzer == nil {
		return "", dErrors.New(dErrors.CodeTransport, "analysis collaborator is not configured")
	}
	if _, err := s.cases.FindByID(ctx, caseID); err != nil {
		return "", wrapCaseErr(err)
	}

	analysis, err := s.analyzer.Analyze(ctx, caseID, action)
	if err != nil {
		return "", err
	}
	s.emit(ctx, actor, audit.ActionCaseAnalyzed, caseID, action, "applied", "")
	return analysis, nil
}

// emit records a successful (or denied) operation; audit failures are logged,
// never turned into operation failures.
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

// deny records a refused mutation and returns the unauthorized error. No
// state was touched by the caller at this point.
func (s *Service) deny(ctx context.Context, actor policy.Actor, attempted audit.Action, caseID id.CaseID, reason string) error {
	s.emit(ctx, actor, audit.ActionUnauthorized, caseID, string(attempted), "denied", reason)
	return dErrors.New(dErrors.CodeUnauthorized, "actor is not allowed to perform this operation")
}

func wrapCaseErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "case store failure")
}
