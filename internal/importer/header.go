package importer

import (
	"strings"
)

// Logical fields of the bank directory feed. Each one resolves to a column
// through an ordered list of candidate keys: the normalized modern spelling
// first, then spellings observed in historical or mis-transcoded files. The
// table exists so the resolution rules stay auditable in one place.
const (
	fieldSortCode            = "sortCode"
	fieldFlag                = "flag"
	fieldFullName            = "fullName"
	fieldPostalCode          = "postalCode"
	fieldCity                = "city"
	fieldShortName           = "shortName"
	fieldHeadOfficeIndicator = "headOfficeIndicator"
	fieldBIC                 = "bic"
	fieldChecksumMethod      = "checksumMethod"
	fieldRecordNumber        = "recordNumber"
	fieldChangeMarker        = "changeMarker"
	fieldDeletionMarker      = "deletionMarker"
	fieldSuccessorSortCode   = "successorSortCode"
)

var fieldCandidates = map[string][]string{
	fieldSortCode:            {"bankleitzahl", "blz"},
	fieldFlag:                {"merkmal"},
	fieldFullName:            {"bezeichnung", "name"},
	fieldPostalCode:          {"plz", "postleitzahl"},
	fieldCity:                {"ort"},
	fieldShortName:           {"kurzbezeichnung"},
	fieldHeadOfficeIndicator: {"pan"},
	fieldBIC:                 {"bic", "swiftcode"},
	// "Prüfzifferberechnungsmethode" arrives with the umlaut replaced or
	// dropped depending on how the feed was transcoded along the way.
	fieldChecksumMethod:    {"pruefzifferberechnungsmethode", "prfzifferberechnungsmethode", "prufzifferberechnungsmethode"},
	fieldRecordNumber:      {"datensatznummer", "datensatznr"},
	fieldChangeMarker:      {"aenderungskennzeichen", "nderungskennzeichen", "anderungskennzeichen"},
	fieldDeletionMarker:    {"bankleitzahlloeschung", "bankleitzahllschung", "bankleitzahlloschung"},
	fieldSuccessorSortCode: {"nachfolgebankleitzahl", "nachfolgeblz"},
}

// transliterations applied before stripping, so umlauts survive as ASCII
// digraphs instead of vanishing.
var transliterations = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "ae", "Ö", "oe", "Ü", "ue",
)

// normalizeKey reduces a column name to a lowercase ASCII key: transliterate
// known diacritics, lowercase, drop everything non-alphanumeric. Replacement
// characters left behind by a broken transcoding step are stripped with the
// rest, which is exactly what lets the corrupted candidate spellings match.
func normalizeKey(header string) string {
	header = transliterations.Replace(header)
	header = strings.ToLower(header)

	var b strings.Builder
	b.Grow(len(header))
	for _, r := range header {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fieldResolver maps logical feed fields to column indices for one concrete
// header row.
type fieldResolver struct {
	normalized map[string]int
	raw        map[string]int
}

func newFieldResolver(header []string) *fieldResolver {
	r := &fieldResolver{
		normalized: make(map[string]int, len(header)),
		raw:        make(map[string]int, len(header)),
	}
	for i, col := range header {
		key := normalizeKey(col)
		if _, seen := r.normalized[key]; !seen {
			r.normalized[key] = i
		}
		trimmed := strings.TrimSpace(col)
		if _, seen := r.raw[trimmed]; !seen {
			r.raw[trimmed] = i
		}
	}
	return r
}

// resolve finds the column index for a logical field by trying its candidate
// keys in priority order against the normalized header, then against the raw
// header text.
func (r *fieldResolver) resolve(field string) (int, bool) {
	for _, key := range fieldCandidates[field] {
		if idx, ok := r.normalized[key]; ok {
			return idx, true
		}
	}
	for _, key := range fieldCandidates[field] {
		if idx, ok := r.raw[key]; ok {
			return idx, true
		}
	}
	return 0, false
}

// value reads a logical field from a record, defaulting to "" when the
// column is unresolved or the record is too short.
func (r *fieldResolver) value(record []string, field string) string {
	idx, ok := r.resolve(field)
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
