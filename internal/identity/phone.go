// Package identity canonicalizes the two identity facts the pipeline keys on:
// phone numbers (uniqueness checks) and name slugs (public profile URLs).
// Everything here is a pure function; uniqueness enforcement lives in the
// stores.
package identity

import "strings"

// CountryCallingCode is the Ecuadorian calling code all phones are
// canonicalized to.
const CountryCallingCode = "593"

// NormalizePhone canonicalizes a raw phone number to +593 form. It is a total
// function: malformed input yields a best-effort canonical string, never an
// error. Shape validation happens earlier, at schema validation.
//
// Accepted shapes all normalize to the same output:
//
//	"0991234567"      -> "+593991234567"
//	"991234567"       -> "+593991234567"
//	"593991234567"    -> "+593991234567"
//	"+593991234567"   -> "+593991234567"
func NormalizePhone(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')', '.':
			return -1
		}
		return r
	}, raw)

	if cleaned == "" {
		return cleaned
	}

	if strings.HasPrefix(cleaned, "+"+CountryCallingCode) {
		return cleaned
	}
	if strings.HasPrefix(cleaned, CountryCallingCode) {
		return "+" + cleaned
	}
	// National form: drop the trunk zero, prepend the country code.
	return "+" + CountryCallingCode + strings.TrimPrefix(cleaned, "0")
}
