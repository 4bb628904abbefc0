package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/osresearch/cosign/keycodec"
	"github.com/osresearch/cosign/merge"
)

func init() {
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge pubkey sig...",
	Short: "Combine partial signatures into a single standard RSA signature",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	pubkeyPath := args[0]
	sigPaths := args[1:]

	pubBytes, err := os.ReadFile(pubkeyPath)
	if err != nil {
		return errors.Wrapf(err, "merge: failed to read public key %s", pubkeyPath)
	}
	pub, err := keycodec.DecodePublicKeyPEM(pubBytes)
	if err != nil {
		return errors.Wrapf(err, "merge: failed to decode public key %s", pubkeyPath)
	}

	sigs := make([][]byte, len(sigPaths))
	for i, path := range sigPaths {
		b, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "merge: failed to read signature %s", path)
		}
		sigs[i] = b
	}

	log.Infof("merge: combining %d partial signatures", len(sigs))
	final, err := merge.Merge(pub, sigs)
	if err != nil {
		return err
	}

	if _, err := os.Stdout.Write(final); err != nil {
		return errors.Wrap(err, "merge: failed to write merged signature")
	}
	return nil
}
