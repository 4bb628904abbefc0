// Package cmd wires the cosign command-line surface: genkey, threshold,
// sign, and merge, dispatched through cobra the way the pack's other
// threshold-signing CLI (luxfi/threshold) wires its own subcommands.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// log is the package-wide structured logger for CLI lifecycle events
// (dealing, signing, merging). It never touches stdout -- the data
// plane (partial signatures, merged signatures) must stay binary-clean
// there -- so it logs to stderr only.
var log = logrus.New()

func init() {
	log.SetOutput(rootCmd.ErrOrStderr())
}

var rootCmd = &cobra.Command{
	Use:   "cosign",
	Short: "Cooperative RSA signatures: split a key, sign with shards, merge the result",
	Long: `cosign implements cooperative RSA signatures: a group of parties jointly
produce a standard RSA signature over a message while no single party
ever holds the full private key after the initial dealing phase.

Two sharing modes are supported: N-of-N unanimous sharing (up to 16
parties) and 2-of-3 threshold sharing with re-dealing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the cosign CLI, returning a non-nil error on any
// failure. main maps any error to a non-zero exit with no finer
// taxonomy.
func Execute() error {
	return rootCmd.Execute()
}
