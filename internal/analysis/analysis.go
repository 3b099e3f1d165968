// Package analysis talks to the external forensic analysis collaborator.
// The collaborator receives a case identifier and an action and answers with
// free text; the service layer stores nothing and surfaces the answer as is.
package analysis

import (
	"context"
	"strings"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

// Action selects what the collaborator is asked to produce.
type Action string

const (
	ActionResumo               Action = "resumo"
	ActionIdentificacaoCruzada Action = "identificacao_cruzada"
	ActionLaudoPreliminar      Action = "laudo_preliminar"
)

// ParseAction validates a wire-level action string.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.TrimSpace(strings.ToLower(raw)))
	switch a {
	case ActionResumo, ActionIdentificacaoCruzada, ActionLaudoPreliminar:
		return a, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown analysis action %q", raw)
}

// Client is implemented by anything able to analyze a case. The action is
// taken as a wire string so the case service can forward it untouched; every
// implementation validates it with ParseAction before doing work.
type Client interface {
	Analyze(ctx context.Context, caseID id.CaseID, action string) (string, error)
}
