package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	casemodels "odontoforense/internal/casefile/models"
	evidencemodels "odontoforense/internal/evidence/models"
	"odontoforense/internal/export"
	"odontoforense/internal/platform/metrics"
	victimmodels "odontoforense/internal/victim/models"
	id "odontoforense/pkg/domain"
)

// CaseSource supplies the case being exported. Access checks happen inside
// the case service, not here.
type CaseSource interface {
	Get(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error)
}

// VictimSource supplies the victims of an exported case.
type VictimSource interface {
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*victimmodels.Victim, error)
}

// EvidenceSource supplies evidence rows, whole-case or by explicit selection.
type EvidenceSource interface {
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*evidencemodels.Evidence, error)
	Batch(ctx context.Context, ids []id.EvidenceID) ([]*evidencemodels.Evidence, error)
}

// Service assembles export artifacts from the feature services.
type Service struct {
	cases     CaseSource
	victims   VictimSource
	evidences EvidenceSource
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a new export Service.
func New(cases CaseSource, victims VictimSource, evidences EvidenceSource, opts ...Option) *Service {
	s := &Service{
		cases:     cases,
		victims:   victims,
		evidences: evidences,
		logger:    slog.Default(),
		tracer:    otel.Tracer("odontoforense/export"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvidenceCSV renders the selected evidence items as the always-quoted CSV
// table. Selection errors from the evidence service pass through untouched.
func (s *Service) EvidenceCSV(ctx context.Context, ids []id.EvidenceID) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "export.evidence_csv")
	defer span.End()

	items, err := s.evidences.Batch(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.countRows(len(items))
	return export.EvidenceTable(items), nil
}

// CaseReport builds the renderer template for a whole case, including its
// victims and evidence as flattened rows.
func (s *Service) CaseReport(ctx context.Context, caseID id.CaseID) (*export.Report, error) {
	ctx, span := s.tracer.Start(ctx, "export.case_report")
	defer span.End()

	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	victims, err := s.victims.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	evidences, err := s.evidences.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.countRows(1 + len(victims) + len(evidences))
	return export.BuildCaseReport(c, victims, evidences), nil
}

func (s *Service) countRows(n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ExportRowsRendered.Add(float64(n))
}
