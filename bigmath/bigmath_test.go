package bigmath

import (
	"math/big"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBigmath(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bigmath Suite")
}

var _ = Describe("ModPow", func() {
	It("agrees with math/big for small positive exponents", func() {
		base := big.NewInt(7)
		exp := big.NewInt(13)
		mod := big.NewInt(97)

		want := new(big.Int).Exp(base, exp, mod)
		got := ModPow(base, exp, mod)

		Expect(got.Cmp(want)).To(Equal(0))
	})

	It("raises the inverse of the base for negative exponents", func() {
		mod := big.NewInt(97)
		positive := big.NewInt(5)
		negative := new(big.Int).Sub(positive, mod) // -92

		base := big.NewInt(11)

		// 11^-92 is the inverse of 11^92 (mod 97), which is 11^4 = 91,
		// not 11^5 = 31.
		magnitude := new(big.Int).Neg(negative)
		want := new(big.Int).ModInverse(new(big.Int).Exp(base, magnitude, mod), mod)
		got := ModPow(base, negative, mod)

		Expect(got.Cmp(want)).To(Equal(0))
	})
})

var _ = Describe("FixedBytes", func() {
	It("left-pads to the requested length", func() {
		b := FixedBytes(big.NewInt(1), 4)
		Expect(b).To(Equal([]byte{0, 0, 0, 1}))
	})
})

var _ = Describe("RandBelow", func() {
	It("returns an integer representable in the requested byte width", func() {
		x, err := RandBelow(32)
		Expect(err).NotTo(HaveOccurred())
		Expect(len(x.Bytes())).To(BeNumerically("<=", 32))
	})

	It("rejects a non-positive width", func() {
		_, err := RandBelow(0)
		Expect(err).To(HaveOccurred())
	})
})
