package iban_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zdziszkee/iban-registry/internal/iban"
)

func TestIban(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "IBAN Suite")
}

// Reference IBANs taken from the published country examples of the IBAN
// registry. Each one carries a correct check digit.
var referenceIbans = []string{
	"AT611904300234573201",
	"BE68539007547034",
	"BG80BNBG96611020345678",
	"CH9300762011623852957",
	"CY17002001280000001200527600",
	"CZ6508000000192000145399",
	"DE89370400440532013000",
	"DK5000400440116243",
	"EE382200221020145685",
	"ES9121000418450200051332",
	"FI2112345600000785",
	"FR1420041010050500013M02606",
	"GB29NWBK60161331926819",
	"GR1601101250000000012300695",
	"HR1210010051863000160",
	"HU42117730161111101800000000",
	"IE29AIBK93115212345678",
	"IT60X0542811101000000123456",
	"LT121000011101001000",
	"LU280019400644750000",
	"LV80BANK0000435195001",
	"MT84MALT011000012345MTLCAST001S",
	"NL91ABNA0417164300",
	"NO9386011117947",
	"PL61109010140000071219812874",
	"PT50000201231234567890154",
	"RO49AAAA1B31007593840000",
	"SA0380000000608010167519",
	"SE4550000000058398257466",
	"SI56263300012039086",
	"SK3112000000198742637541",
	"TR330006100519786457841326",
}

var _ = Describe("Validate", func() {
	Context("with empty input", func() {
		It("treats the missing IBAN as a valid no-op", func() {
			for _, raw := range []string{"", "   ", "\t", " - "} {
				result := iban.Validate(raw)
				Expect(result.Valid).To(BeTrue())
				Expect(result.Reason).To(BeEmpty())
				Expect(result.Formatted).To(BeEmpty())
				Expect(result.CountryCode).To(BeEmpty())
				Expect(result.BankCode).To(BeEmpty())
			}
		})
	})

	Context("with reference IBANs", func() {
		It("accepts every reference IBAN", func() {
			for _, raw := range referenceIbans {
				result := iban.Validate(raw)
				Expect(result.Valid).To(BeTrue(), "expected %s to validate", raw)
				Expect(result.CountryCode).To(Equal(raw[:2]))
			}
		})

		It("agrees with the country length table", func() {
			for _, raw := range referenceIbans {
				expected, ok := iban.CountryLength(raw[:2])
				Expect(ok).To(BeTrue(), "no length entry for %s", raw[:2])
				Expect(len(raw)).To(Equal(expected), "length mismatch for %s", raw[:2])
			}
		})

		It("formats losslessly in blocks of four", func() {
			for _, raw := range referenceIbans {
				result := iban.Validate(raw)
				Expect(result.Formatted).NotTo(HaveSuffix(" "))
				Expect(strings.ReplaceAll(result.Formatted, " ", "")).To(Equal(raw))
				for _, block := range strings.Split(result.Formatted, " ") {
					Expect(len(block)).To(BeNumerically("<=", 4))
				}
			}
		})
	})

	Context("with user-mangled but valid input", func() {
		It("normalizes spacing, case and punctuation", func() {
			result := iban.Validate("de89 3704-0044 0532 0130 00")
			Expect(result.Valid).To(BeTrue())
			Expect(result.Formatted).To(Equal("DE89 3704 0044 0532 0130 00"))
			Expect(result.CountryCode).To(Equal("DE"))
			Expect(result.BankCode).To(Equal("37040044"))
		})
	})

	Context("with malformed input", func() {
		It("rejects input without the country/check-digit prefix", func() {
			for _, raw := range []string{"1234567890", "D189370400440532013000", "DEXX370400440532013000", "DE89/?"} {
				result := iban.Validate(raw)
				Expect(result.Valid).To(BeFalse())
				Expect(result.Reason).To(Equal(iban.ReasonFormat))
			}
		})

		It("rejects unknown country codes", func() {
			result := iban.Validate("ZZ89370400440532013000")
			Expect(result.Valid).To(BeFalse())
			Expect(result.Reason).To(Equal(iban.ReasonUnknownCountry))
			Expect(result.CountryCode).To(Equal("ZZ"))
		})

		It("rejects wrong lengths but still reports country and bank code", func() {
			result := iban.Validate("DE8937040044053201300")
			Expect(result.Valid).To(BeFalse())
			Expect(result.Reason).To(Equal(iban.ReasonLength))
			Expect(result.CountryCode).To(Equal("DE"))
			Expect(result.BankCode).To(Equal("37040044"))
		})

		It("rejects any single-digit mutation of the account part", func() {
			const valid = "DE89370400440532013000"
			for i := 4; i < len(valid); i++ {
				mutated := []byte(valid)
				if mutated[i] == '9' {
					mutated[i] = '0'
				} else {
					mutated[i]++
				}
				result := iban.Validate(string(mutated))
				Expect(result.Valid).To(BeFalse(), "mutation at %d slipped through", i)
				Expect(result.Reason).To(Equal(iban.ReasonChecksum))
			}
		})

		It("still extracts the bank code on checksum failure", func() {
			result := iban.Validate("DE89370400440532013001")
			Expect(result.Valid).To(BeFalse())
			Expect(result.Reason).To(Equal(iban.ReasonChecksum))
			Expect(result.BankCode).To(Equal("37040044"))
			Expect(result.Formatted).To(Equal("DE89 3704 0044 0532 0130 01"))
		})
	})

	Context("bank code extraction", func() {
		It("extracts the German sort code", func() {
			Expect(iban.Validate("DE89370400440532013000").BankCode).To(Equal("37040044"))
		})

		It("extracts the Austrian sort code", func() {
			Expect(iban.Validate("AT611904300234573201").BankCode).To(Equal("19043"))
		})

		It("yields no bank code for unsupported layouts", func() {
			Expect(iban.Validate("GB29NWBK60161331926819").BankCode).To(BeEmpty())
		})
	})
})
