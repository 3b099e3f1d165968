package domain

import (
	"github.com/google/uuid"

	dErrors "odontoforense/pkg/domain-errors"
)

// Typed identifiers for the aggregates tracked by this service. Distinct
// types keep a CaseID from ever being passed where a VictimID is expected;
// the compiler enforces the boundary.
type (
	UserID       uuid.UUID
	SessionID    uuid.UUID
	CaseID       uuid.UUID
	VictimID     uuid.UUID
	OdontogramID uuid.UUID
	EvidenceID   uuid.UUID
)

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Called at trust boundaries (handlers, adapters).
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is not a valid UUID", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id cannot be the nil UUID", kind)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session")
	return SessionID(u), err
}

func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case")
	return CaseID(u), err
}

func ParseVictimID(s string) (VictimID, error) {
	u, err := parseUUID(s, "victim")
	return VictimID(u), err
}

func ParseOdontogramID(s string) (OdontogramID, error) {
	u, err := parseUUID(s, "odontogram")
	return OdontogramID(u), err
}

func ParseEvidenceID(s string) (EvidenceID, error) {
	u, err := parseUUID(s, "evidence")
	return EvidenceID(u), err
}

func (i UserID) String() string       { return uuid.UUID(i).String() }
func (i SessionID) String() string    { return uuid.UUID(i).String() }
func (i CaseID) String() string       { return uuid.UUID(i).String() }
func (i VictimID) String() string     { return uuid.UUID(i).String() }
func (i OdontogramID) String() string { return uuid.UUID(i).String() }
func (i EvidenceID) String() string   { return uuid.UUID(i).String() }

// The defined types do not inherit uuid.UUID's methods, so without these
// encoding/json would render an ID as its underlying byte array. Clients
// consume and echo IDs in canonical string form, so the text codec
// delegates to String and the Parse helpers.
func (i UserID) MarshalText() ([]byte, error)       { return []byte(i.String()), nil }
func (i SessionID) MarshalText() ([]byte, error)    { return []byte(i.String()), nil }
func (i CaseID) MarshalText() ([]byte, error)       { return []byte(i.String()), nil }
func (i VictimID) MarshalText() ([]byte, error)     { return []byte(i.String()), nil }
func (i OdontogramID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i EvidenceID) MarshalText() ([]byte, error)   { return []byte(i.String()), nil }

func (i *UserID) UnmarshalText(b []byte) error {
	v, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i *SessionID) UnmarshalText(b []byte) error {
	v, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i *CaseID) UnmarshalText(b []byte) error {
	v, err := ParseCaseID(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i *VictimID) UnmarshalText(b []byte) error {
	v, err := ParseVictimID(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i *OdontogramID) UnmarshalText(b []byte) error {
	v, err := ParseOdontogramID(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i *EvidenceID) UnmarshalText(b []byte) error {
	v, err := ParseEvidenceID(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i UserID) IsNil() bool       { return uuid.UUID(i) == uuid.Nil }
func (i SessionID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i CaseID) IsNil() bool       { return uuid.UUID(i) == uuid.Nil }
func (i VictimID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i OdontogramID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i EvidenceID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }
