// End-to-end tests covering dealing, signing, and merging across the
// unanimous and threshold workflows, exercised directly against the
// library packages cmd/ wraps.
package main_test

import (
	"crypto/rand"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/osresearch/cosign/keycodec"
	"github.com/osresearch/cosign/merge"
	"github.com/osresearch/cosign/partialsign"
	"github.com/osresearch/cosign/shard"
)

func TestCosign(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cosign End-to-End Suite")
}

const theMessage = "The Magic Words are Squeamish Ossifrage\n"

func signAll(shards []*keycodec.Shard, message []byte) [][]byte {
	sigs := make([][]byte, len(shards))
	for i, s := range shards {
		sig, err := partialsign.Sign(s, message)
		Expect(err).NotTo(HaveOccurred())
		sigs[i] = sig
	}
	return sigs
}

var _ = Describe("Unanimous (N-of-N) mode", func() {
	message := []byte(theMessage)

	for n := 2; n <= shard.MaxUnanimousShards; n++ {
		n := n
		It("verifies once all N shares are merged", func() {
			key, err := shard.GenerateKey()
			Expect(err).NotTo(HaveOccurred())
			defer key.Wipe()

			shards, err := shard.DealUnanimous(key, n)
			Expect(err).NotTo(HaveOccurred())

			sigs := signAll(shards, message)

			final, err := merge.Merge(shards[0].PublicKey(), sigs)
			Expect(err).NotTo(HaveOccurred())
			Expect(final).To(HaveLen(256))
		})
	}

	It("rejects a share count outside [1, 16]", func() {
		key, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer key.Wipe()

		_, err = shard.DealUnanimous(key, 17)
		Expect(err).To(HaveOccurred())

		_, err = shard.DealUnanimous(key, 0)
		Expect(err).To(HaveOccurred())
	})

	It("fails to merge when one of the shares is missing", func() {
		key, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer key.Wipe()

		shards, err := shard.DealUnanimous(key, 4)
		Expect(err).NotTo(HaveOccurred())

		sigs := signAll(shards, message)

		_, err = merge.Merge(shards[0].PublicKey(), sigs[1:])
		Expect(err).To(HaveOccurred())
	})

	It("fails to merge when one share is corrupted (random bytes of the same length)", func() {
		key, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer key.Wipe()

		shards, err := shard.DealUnanimous(key, 3)
		Expect(err).NotTo(HaveOccurred())

		sigs := signAll(shards, message)
		garbage := make([]byte, len(sigs[0]))
		_, readErr := rand.Read(garbage)
		Expect(readErr).NotTo(HaveOccurred())
		sigs[0] = garbage

		_, err = merge.Merge(shards[0].PublicKey(), sigs)
		Expect(err).To(HaveOccurred())
	})

	It("does not verify the same merged signature against a different public key", func() {
		key, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer key.Wipe()

		shards, err := shard.DealUnanimous(key, 2)
		Expect(err).NotTo(HaveOccurred())
		sigs := signAll(shards, message)
		final, err := merge.Merge(shards[0].PublicKey(), sigs)
		Expect(err).NotTo(HaveOccurred())

		otherKey, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer otherKey.Wipe()

		// the merged signature, raised to e mod the *other* key's n,
		// should not reproduce the PKCS#1 v1.5 prefix.
		_, err = merge.Merge(otherKey.PublicKey(), [][]byte{final})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Threshold (2-of-3) mode", func() {
	message := []byte(theMessage)

	It("verifies for each of the three pairwise mergers", func() {
		key, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer key.Wipe()

		shards, err := shard.DealThreshold(key)
		Expect(err).NotTo(HaveOccurred())
		sigs := signAll(shards, message)

		for _, pair := range [][2]int{{0, 1}, {1, 2}, {0, 2}} {
			final, err := merge.Merge(shards[0].PublicKey(), [][]byte{sigs[pair[0]], sigs[pair[1]]})
			Expect(err).NotTo(HaveOccurred(), "pair %v", pair)
			Expect(final).To(HaveLen(256))
		}
	})

	It("re-splits from two shards and still verifies against the original public key", func() {
		key, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer key.Wipe()

		original, err := shard.DealThreshold(key)
		Expect(err).NotTo(HaveOccurred())

		reconstructed, err := shard.Resplit(original[0], original[2])
		Expect(err).NotTo(HaveOccurred())
		defer reconstructed.Wipe()
		Expect(reconstructed.N.Cmp(key.N)).To(Equal(0))

		resplitShards, err := shard.DealThreshold(reconstructed)
		Expect(err).NotTo(HaveOccurred())

		sigs := signAll(resplitShards[:2], message)
		final, err := merge.Merge(resplitShards[0].PublicKey(), sigs)
		Expect(err).NotTo(HaveOccurred())
		Expect(final).To(HaveLen(256))
	})

	It("rejects merging a re-split shard against a shard from the original triple", func() {
		key, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer key.Wipe()

		original, err := shard.DealThreshold(key)
		Expect(err).NotTo(HaveOccurred())

		reconstructed, err := shard.Resplit(original[0], original[2])
		Expect(err).NotTo(HaveOccurred())
		defer reconstructed.Wipe()

		resplitShards, err := shard.DealThreshold(reconstructed)
		Expect(err).NotTo(HaveOccurred())

		sigOriginal, err := partialsign.Sign(original[1], message)
		Expect(err).NotTo(HaveOccurred())
		sigResplit, err := partialsign.Sign(resplitShards[0], message)
		Expect(err).NotTo(HaveOccurred())

		_, err = merge.Merge(original[0].PublicKey(), [][]byte{sigOriginal, sigResplit})
		Expect(err).To(HaveOccurred())
	})

	It("rejects re-splitting a unanimous shard with a threshold shard", func() {
		unanimousKey, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer unanimousKey.Wipe()
		unanimousShards, err := shard.DealUnanimous(unanimousKey, 2)
		Expect(err).NotTo(HaveOccurred())

		thresholdKey, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer thresholdKey.Wipe()
		thresholdShards, err := shard.DealThreshold(thresholdKey)
		Expect(err).NotTo(HaveOccurred())

		_, err = shard.Resplit(unanimousShards[0], thresholdShards[0])
		Expect(err).To(HaveOccurred())
	})

	It("rejects re-splitting two threshold shards from distinct keys", func() {
		keyA, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer keyA.Wipe()
		shardsA, err := shard.DealThreshold(keyA)
		Expect(err).NotTo(HaveOccurred())

		keyB, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer keyB.Wipe()
		shardsB, err := shard.DealThreshold(keyB)
		Expect(err).NotTo(HaveOccurred())

		_, err = shard.Resplit(shardsA[1], shardsB[0])
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Wrong message", func() {
	It("a signature produced over one message is not byte-identical to one over another, and merging a partial signed under M against partials for M' fails", func() {
		key, err := shard.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		defer key.Wipe()

		shards, err := shard.DealUnanimous(key, 2)
		Expect(err).NotTo(HaveOccurred())

		sigM0, err := partialsign.Sign(shards[0], []byte("message M"))
		Expect(err).NotTo(HaveOccurred())
		sigM1, err := partialsign.Sign(shards[1], []byte("message M"))
		Expect(err).NotTo(HaveOccurred())

		finalM, err := merge.Merge(shards[0].PublicKey(), [][]byte{sigM0, sigM1})
		Expect(err).NotTo(HaveOccurred())

		sigMPrime0, err := partialsign.Sign(shards[0], []byte("message M-prime"))
		Expect(err).NotTo(HaveOccurred())
		Expect(sigMPrime0).NotTo(Equal(sigM0))

		// a partial signed under M combined with one signed under M' does
		// not reconstruct a valid signature over either message.
		_, err = merge.Merge(shards[0].PublicKey(), [][]byte{sigMPrime0, sigM1})
		Expect(err).To(HaveOccurred())

		Expect(finalM).To(HaveLen(256))
	})
})
