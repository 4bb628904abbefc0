// Command cosign performs cooperative RSA signatures: one batch
// operation per invocation (generate a key and split it, sign with a
// shard, or merge partial signatures), then exits. See the cmd
// package for the subcommand surface.
package main

import (
	"fmt"
	"os"

	"github.com/osresearch/cosign/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cosign:", err)
		os.Exit(1)
	}
}
