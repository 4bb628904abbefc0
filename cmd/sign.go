package cmd

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/osresearch/cosign/partialsign"
)

func init() {
	rootCmd.AddCommand(signCmd)
}

var signCmd = &cobra.Command{
	Use:   "sign keyfile",
	Short: "Read a message from stdin and write a raw partial signature to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runSign,
}

func runSign(cmd *cobra.Command, args []string) error {
	keyfile := args[0]

	shard, err := readShard(keyfile)
	if err != nil {
		return err
	}

	message, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return errors.Wrap(err, "sign: failed to read message from stdin")
	}

	sig, err := partialsign.Sign(shard, message)
	if err != nil {
		return errors.Wrapf(err, "sign: failed to sign with %s", keyfile)
	}

	if _, err := os.Stdout.Write(sig); err != nil {
		return errors.Wrap(err, "sign: failed to write partial signature")
	}
	return nil
}
