package models

import dErrors "odontoforense/pkg/domain-errors"

// CaseStatus is the lifecycle stage of a case. Any of the three values may be
// reassigned to any other; this is a free-form enumerated field, not a strict
// state machine.
type CaseStatus string

const (
	CaseStatusEmAndamento CaseStatus = "em_andamento"
	CaseStatusFinalizado  CaseStatus = "finalizado"
	CaseStatusArquivado   CaseStatus = "arquivado"
)

var validCaseStatuses = map[CaseStatus]bool{
	CaseStatusEmAndamento: true,
	CaseStatusFinalizado:  true,
	CaseStatusArquivado:   true,
}

// ParseCaseStatus constructs a CaseStatus from external input.
func ParseCaseStatus(s string) (CaseStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := CaseStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

func (s CaseStatus) IsValid() bool {
	return validCaseStatuses[s]
}

func (s CaseStatus) String() string {
	return string(s)
}

// CaseCategory classifies the forensic context of a case.
type CaseCategory string

const (
	CategoryAcidente      CaseCategory = "acidente"
	CategoryIdentificacao CaseCategory = "identificacao_de_vitima"
	CategoryExameCriminal CaseCategory = "exame_criminal"
	CategoryOutros        CaseCategory = "outros"
)

var validCaseCategories = map[CaseCategory]bool{
	CategoryAcidente:      true,
	CategoryIdentificacao: true,
	CategoryExameCriminal: true,
	CategoryOutros:        true,
}

// ParseCaseCategory constructs a CaseCategory from external input.
func ParseCaseCategory(s string) (CaseCategory, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category cannot be empty")
	}
	c := CaseCategory(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid category")
	}
	return c, nil
}

func (c CaseCategory) IsValid() bool {
	return validCaseCategories[c]
}

func (c CaseCategory) String() string {
	return string(c)
}
