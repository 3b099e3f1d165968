// Package models holds the odontogram aggregate: 32-position FDI tooth
// charts attached to victims.
package models

import (
	dErrors "odontoforense/pkg/domain-errors"
)

// CanonicalFDI is the full permanent dentition in FDI two-digit notation,
// ordered upper-right, upper-left, lower-right, lower-left. Every chart
// carries exactly these 32 positions.
var CanonicalFDI = []string{
	"18", "17", "16", "15", "14", "13", "12", "11",
	"21", "22", "23", "24", "25", "26", "27", "28",
	"48", "47", "46", "45", "44", "43", "42", "41",
	"31", "32", "33", "34", "35", "36", "37", "38",
}

var canonicalSet = func() map[string]bool {
	set := make(map[string]bool, len(CanonicalFDI))
	for _, fdi := range CanonicalFDI {
		set[fdi] = true
	}
	return set
}()

// ValidFDI reports whether the code is one of the 32 canonical positions.
func ValidFDI(fdi string) bool {
	return canonicalSet[fdi]
}

// ParseFDI validates an FDI code from external input.
func ParseFDI(fdi string) (string, error) {
	if !canonicalSet[fdi] {
		return "", dErrors.Newf(dErrors.CodeInvalidFDI, "FDI code %q is not in the 32-position permanent dentition", fdi)
	}
	return fdi, nil
}

// ToothStatus is the clinical finding recorded for one tooth position.
type ToothStatus string

const (
	ToothNaoExaminado           ToothStatus = "nao_examinado"
	ToothPresenteHigido         ToothStatus = "presente_higido"
	ToothPresenteCariado        ToothStatus = "presente_cariado"
	ToothPresenteRestaurado     ToothStatus = "presente_restaurado"
	ToothPresenteTratEndo       ToothStatus = "presente_trat_endodontico"
	ToothPresenteComProteseFixa ToothStatus = "presente_com_protese_fixa"
	ToothAusenteExtraido        ToothStatus = "ausente_extraido"
	ToothAusenteNaoErupcionado  ToothStatus = "ausente_nao_erupcionado"
	ToothImplante               ToothStatus = "implante"
	ToothOutro                  ToothStatus = "outro"
)

var validToothStatuses = map[ToothStatus]bool{
	ToothNaoExaminado:           true,
	ToothPresenteHigido:         true,
	ToothPresenteCariado:        true,
	ToothPresenteRestaurado:     true,
	ToothPresenteTratEndo:       true,
	ToothPresenteComProteseFixa: true,
	ToothAusenteExtraido:        true,
	ToothAusenteNaoErupcionado:  true,
	ToothImplante:               true,
	ToothOutro:                  true,
}

// ParseToothStatus constructs a ToothStatus from external input.
func ParseToothStatus(s string) (ToothStatus, error) {
	st := ToothStatus(s)
	if !validToothStatuses[st] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown tooth status %q", s)
	}
	return st, nil
}

func (s ToothStatus) IsValid() bool {
	return validToothStatuses[s]
}

func (s ToothStatus) String() string {
	return string(s)
}

// ToothRecord is the finding for one FDI position.
type ToothRecord struct {
	FDI          string      `json:"fdi"`
	Status       ToothStatus `json:"status"`
	Observations string      `json:"observations,omitempty"`
}
