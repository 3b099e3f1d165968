package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseUserID checks the boundary parser never panics and never accepts
// input it cannot round-trip.
func FuzzParseUserID(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		parsed, err := ParseUserID(input)
		if err == nil {
			roundTrip, err2 := ParseUserID(parsed.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != parsed {
				t.Error("round-trip changed ID value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs ensures every ID type shares the same validation, so no
// aggregate is reachable through a looser parser than the others.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errUser := ParseUserID(input)
		_, errSession := ParseSessionID(input)
		_, errCase := ParseCaseID(input)
		_, errVictim := ParseVictimID(input)
		_, errChart := ParseOdontogramID(input)
		_, errEvidence := ParseEvidenceID(input)

		accepted := errUser == nil
		for _, err := range []error{errSession, errCase, errVictim, errChart, errEvidence} {
			if (err == nil) != accepted {
				t.Error("inconsistent parsing across ID types")
			}
		}
	})
}
