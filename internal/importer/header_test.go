package importer

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("normalizeKey", func() {
	ginkgo.It("lowercases and strips non-alphanumerics", func() {
		Expect(normalizeKey("Nachfolge-Bankleitzahl")).To(Equal("nachfolgebankleitzahl"))
		Expect(normalizeKey("  PLZ  ")).To(Equal("plz"))
		Expect(normalizeKey("BIC")).To(Equal("bic"))
	})

	ginkgo.It("transliterates German diacritics", func() {
		Expect(normalizeKey("Prüfzifferberechnungsmethode")).To(Equal("pruefzifferberechnungsmethode"))
		Expect(normalizeKey("Änderungskennzeichen")).To(Equal("aenderungskennzeichen"))
		Expect(normalizeKey("Bankleitzahllöschung")).To(Equal("bankleitzahlloeschung"))
		Expect(normalizeKey("Straße")).To(Equal("strasse"))
	})

	ginkgo.It("drops replacement characters from mis-transcoded headers", func() {
		Expect(normalizeKey("Pr?fzifferberechnungsmethode")).To(Equal("prfzifferberechnungsmethode"))
		Expect(normalizeKey("?nderungskennzeichen")).To(Equal("nderungskennzeichen"))
		Expect(normalizeKey("Pr�fzifferberechnungsmethode")).To(Equal("prfzifferberechnungsmethode"))
	})
})

var _ = ginkgo.Describe("fieldResolver", func() {
	ginkgo.It("resolves the clean modern header", func() {
		r := newFieldResolver([]string{"Bankleitzahl", "Merkmal", "Bezeichnung", "PLZ", "Ort", "Kurzbezeichnung", "PAN", "BIC", "Prüfzifferberechnungsmethode", "Datensatznummer", "Änderungskennzeichen", "Bankleitzahllöschung", "Nachfolge-Bankleitzahl"})

		for i, field := range []string{fieldSortCode, fieldFlag, fieldFullName, fieldPostalCode, fieldCity, fieldShortName, fieldHeadOfficeIndicator, fieldBIC, fieldChecksumMethod, fieldRecordNumber, fieldChangeMarker, fieldDeletionMarker, fieldSuccessorSortCode} {
			idx, ok := r.resolve(field)
			Expect(ok).To(BeTrue(), "field %s unresolved", field)
			Expect(idx).To(Equal(i), "field %s mapped to wrong column", field)
		}
	})

	ginkgo.It("resolves corrupted header spellings", func() {
		r := newFieldResolver([]string{"BLZ", "Pr?fzifferberechnungsmethode", "?nderungskennzeichen"})

		idx, ok := r.resolve(fieldSortCode)
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(0))

		idx, ok = r.resolve(fieldChecksumMethod)
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(1))

		idx, ok = r.resolve(fieldChangeMarker)
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(2))
	})

	ginkgo.It("reports missing fields", func() {
		r := newFieldResolver([]string{"Bankleitzahl", "Ort"})
		_, ok := r.resolve(fieldBIC)
		Expect(ok).To(BeFalse())
	})

	ginkgo.It("defaults short records to empty values", func() {
		r := newFieldResolver([]string{"Bankleitzahl", "Bezeichnung", "BIC"})
		Expect(r.value([]string{"10010010"}, fieldBIC)).To(Equal(""))
		Expect(r.value([]string{"10010010", " Postbank "}, fieldFullName)).To(Equal("Postbank"))
	})
})
