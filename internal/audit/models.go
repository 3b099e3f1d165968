package audit

import (
	"time"

	id "odontoforense/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	ActorID   id.UserID
	ActorRole id.Role
	Action    Action
	CaseID    id.CaseID
	Subject   string // entity the action touched (victim id, fdi code, member id, ...)
	Decision  string // "applied" or "denied"
	Reason    string
	RequestID string
	ClientIP  string
	UserAgent string
}

// Action names one auditable operation.
type Action string

const (
	ActionLoginSucceeded  Action = "login_succeeded"
	ActionLoginFailed     Action = "login_failed"
	ActionSessionRevoked  Action = "session_revoked"
	ActionCaseCreated     Action = "case_created"
	ActionCaseUpdated     Action = "case_updated"
	ActionCaseDeleted     Action = "case_deleted"
	ActionCaseAnalyzed    Action = "case_analyzed"
	ActionMemberAdded     Action = "member_added"
	ActionMemberRemoved   Action = "member_removed"
	ActionVictimCreated   Action = "victim_created"
	ActionVictimUpdated   Action = "victim_updated"
	ActionVictimDeleted   Action = "victim_deleted"
	ActionChartCreated    Action = "odontogram_created"
	ActionChartUpdated    Action = "odontogram_updated"
	ActionToothUpdated    Action = "tooth_updated"
	ActionChartDeleted    Action = "odontogram_deleted"
	ActionEvidenceCreated Action = "evidence_created"
	ActionEvidenceUpdated Action = "evidence_updated"
	ActionEvidenceDeleted Action = "evidence_deleted"
	ActionUnauthorized    Action = "unauthorized_attempt"
)
