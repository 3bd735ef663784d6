// Package iban implements IBAN normalization, structural validation and the
// ISO 7064 mod-97-10 checksum, plus best-effort extraction of the national
// bank code for the countries whose IBAN layout embeds one at a fixed
// position.
package iban

import (
	"regexp"
	"strconv"
	"strings"
)

// Reason classifies why an IBAN failed validation.
type Reason string

const (
	ReasonFormat         Reason = "FORMAT"
	ReasonUnknownCountry Reason = "UNKNOWN_COUNTRY"
	ReasonLength         Reason = "LENGTH"
	ReasonChecksum       Reason = "CHECKSUM"
)

// Result is the outcome of validating a single IBAN. Derived fields are
// populated best-effort: a length or checksum failure still reports the
// detected country and, where the layout allows, the national bank code, so
// callers can give useful feedback on malformed input.
type Result struct {
	Valid       bool   `json:"valid"`
	Reason      Reason `json:"errorReason,omitempty"`
	Formatted   string `json:"formatted,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	BankCode    string `json:"nationalBankCode,omitempty"`
}

// ibanShapeRegex: 2-letter country code, 2 check digits, alphanumeric remainder.
var ibanShapeRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]+$`)

// countryLengths maps ISO 3166 country codes to the total IBAN length
// registered for that country.
var countryLengths = map[string]int{
	"AD": 24, "AE": 23, "AL": 28, "AT": 20, "AZ": 28,
	"BA": 20, "BE": 16, "BG": 22, "BH": 22, "BI": 27, "BR": 29, "BY": 28,
	"CH": 21, "CR": 22, "CY": 28, "CZ": 24,
	"DE": 22, "DJ": 27, "DK": 18, "DO": 28,
	"EE": 20, "EG": 29, "ES": 24,
	"FI": 18, "FK": 18, "FO": 18, "FR": 27,
	"GB": 22, "GE": 22, "GI": 23, "GL": 18, "GR": 27, "GT": 28,
	"HR": 21, "HU": 28,
	"IE": 22, "IL": 23, "IQ": 23, "IS": 26, "IT": 27,
	"JO": 30,
	"KW": 30, "KZ": 20,
	"LB": 28, "LC": 32, "LI": 21, "LT": 20, "LU": 20, "LV": 21, "LY": 25,
	"MC": 27, "MD": 24, "ME": 22, "MK": 19, "MN": 20, "MR": 27, "MT": 31, "MU": 30,
	"NI": 28, "NL": 18, "NO": 15,
	"OM": 23,
	"PK": 24, "PL": 28, "PS": 29, "PT": 25,
	"QA": 29,
	"RO": 24, "RS": 22, "RU": 33,
	"SA": 24, "SC": 31, "SD": 18, "SE": 24, "SI": 19, "SK": 24, "SM": 27, "SO": 23, "ST": 25, "SV": 28,
	"TL": 23, "TN": 24, "TR": 26,
	"UA": 29,
	"VA": 22, "VG": 24,
	"XK": 20,
}

// bankCodeLayout describes where the national bank code sits inside an IBAN.
type bankCodeLayout struct {
	offset int
	length int
}

// bankCodeLayouts covers the countries whose domestic sort code can be read
// straight out of the IBAN. Countries not listed yield no bank code.
var bankCodeLayouts = map[string]bankCodeLayout{
	"DE": {4, 8},
	"AT": {4, 5},
	"CH": {4, 5},
	"BE": {4, 3},
	"NL": {4, 4},
	"FR": {4, 5},
	"ES": {4, 4},
	"IT": {5, 5},
}

// Normalize strips every non-alphanumeric character and uppercases the rest.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// Format renders a normalized IBAN in the canonical presentation form:
// blocks of four characters separated by single spaces.
func Format(normalized string) string {
	var b strings.Builder
	b.Grow(len(normalized) + len(normalized)/4)
	for i := 0; i < len(normalized); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + 4
		if end > len(normalized) {
			end = len(normalized)
		}
		b.WriteString(normalized[i:end])
	}
	return b.String()
}

// CountryLength reports the registered IBAN length for a country code.
func CountryLength(countryCode string) (int, bool) {
	n, ok := countryLengths[countryCode]
	return n, ok
}

// extractBankCode reads the national bank code out of a normalized IBAN,
// returning "" when the country has no known layout or the IBAN is too short.
func extractBankCode(normalized string) string {
	if len(normalized) < 2 {
		return ""
	}
	layout, ok := bankCodeLayouts[normalized[:2]]
	if !ok {
		return ""
	}
	if len(normalized) < layout.offset+layout.length {
		return ""
	}
	return normalized[layout.offset : layout.offset+layout.length]
}

// checksumRemainder computes the mod-97 remainder of the rearranged IBAN.
// The rearranged string (BBAN + country code + check digits) is expanded to
// digits (A=10 .. Z=35) and reduced incrementally: load nine digits, take the
// remainder, then keep appending up to seven digits at a time. This keeps
// every intermediate value inside an int64 regardless of IBAN length.
func checksumRemainder(normalized string) int {
	rearranged := normalized[4:] + normalized[:4]

	var digits strings.Builder
	digits.Grow(len(rearranged) * 2)
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(strconv.Itoa(int(r-'A') + 10))
		} else {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	chunk := 9
	var remainder int64
	for len(s) > 0 {
		if chunk > len(s) {
			chunk = len(s)
		}
		n, _ := strconv.ParseInt(strconv.FormatInt(remainder, 10)+s[:chunk], 10, 64)
		remainder = n % 97
		s = s[chunk:]
		chunk = 7
	}
	return int(remainder)
}

// Validate checks a raw IBAN string. Empty input (after stripping separators)
// is treated as a valid no-op since the IBAN is an optional attribute at the
// call sites; callers that require a value enforce presence themselves.
func Validate(raw string) Result {
	normalized := Normalize(raw)
	if normalized == "" {
		return Result{Valid: true}
	}

	if !ibanShapeRegex.MatchString(normalized) {
		return Result{Valid: false, Reason: ReasonFormat}
	}

	countryCode := normalized[:2]
	formatted := Format(normalized)

	expectedLength, ok := countryLengths[countryCode]
	if !ok {
		return Result{
			Valid:       false,
			Reason:      ReasonUnknownCountry,
			Formatted:   formatted,
			CountryCode: countryCode,
		}
	}
	if len(normalized) != expectedLength {
		return Result{
			Valid:       false,
			Reason:      ReasonLength,
			Formatted:   formatted,
			CountryCode: countryCode,
			BankCode:    extractBankCode(normalized),
		}
	}

	bankCode := extractBankCode(normalized)
	if checksumRemainder(normalized) != 1 {
		return Result{
			Valid:       false,
			Reason:      ReasonChecksum,
			Formatted:   formatted,
			CountryCode: countryCode,
			BankCode:    bankCode,
		}
	}

	return Result{
		Valid:       true,
		Formatted:   formatted,
		CountryCode: countryCode,
		BankCode:    bankCode,
	}
}
