package service

import (
	"context"
	"errors"

	"odontoforense/internal/audit"
	"odontoforense/internal/casefile/models"
	"odontoforense/internal/policy"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/requestcontext"
)

// AddMember adds an identity to the case team. The same identity submitted
// twice fails with already-member and leaves the team unchanged, so the
// operation is safe to retry only by first re-reading the case.
func (s *Service) AddMember(ctx context.Context, caseID id.CaseID, memberID id.UserID, surface policy.Surface) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "case.team.add")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c, err := s.cases.Execute(ctx, caseID,
		func(c *models.Case) error {
			if !policy.CanManageTeam(actor, c.Authority(), surface) {
				return s.deny(ctx, actor, audit.ActionMemberAdded, caseID, "actor may not manage this team")
			}
			// Resolved only after the permission gate so an unauthorized
			// actor learns nothing about which user IDs exist.
			role, err := s.directory.RoleOf(ctx, memberID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "identity not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve identity")
			}
			if !role.TeamEligible() {
				return dErrors.Newf(dErrors.CodeValidation, "role %s cannot join a case team", role)
			}
			return c.CanAddMember(memberID)
		},
		func(c *models.Case) {
			c.ApplyAddMember(memberID, now)
		},
	)
	if err != nil {
		return nil, wrapTeamErr(err)
	}

	s.emit(ctx, actor, audit.ActionMemberAdded, caseID, memberID.String(), "applied", "")
	s.metrics.IncrementTeamEdits()
	return c, nil
}

// RemoveMember removes an ordinary member from the case team. Removing the
// responsible expert is rejected on every surface.
func (s *Service) RemoveMember(ctx context.Context, caseID id.CaseID, memberID id.UserID, surface policy.Surface) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "case.team.remove")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c, err := s.cases.Execute(ctx, caseID,
		func(c *models.Case) error {
			if !policy.CanManageTeam(actor, c.Authority(), surface) {
				return s.deny(ctx, actor, audit.ActionMemberRemoved, caseID, "actor may not manage this team")
			}
			return c.CanRemoveMember(memberID)
		},
		func(c *models.Case) {
			c.ApplyRemoveMember(memberID, now)
		},
	)
	if err != nil {
		return nil, wrapTeamErr(err)
	}

	s.emit(ctx, actor, audit.ActionMemberRemoved, caseID, memberID.String(), "applied", "")
	s.metrics.IncrementTeamEdits()
	return c, nil
}

// wrapTeamErr keeps coded errors from the validate callback intact and maps
// store sentinels; anything else is an infrastructure failure.
func wrapTeamErr(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeVersionConflict, "case was modified since it was read")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "case store failure")
}
