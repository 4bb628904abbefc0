package cmd

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/osresearch/cosign/keycodec"
	"github.com/osresearch/cosign/shard"
)

func init() {
	rootCmd.AddCommand(genkeyCmd)
}

var genkeyCmd = &cobra.Command{
	Use:   "genkey N basename",
	Short: "Generate an RSA key and split it into N unanimous shards",
	Args:  cobra.ExactArgs(2),
	RunE:  runGenkey,
}

func runGenkey(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrapf(err, "genkey: invalid share count %q", args[0])
	}
	basename := args[1]

	log.Infof("genkey: generating a fresh RSA key for %d unanimous shards", n)
	key, err := shard.GenerateKey()
	if err != nil {
		return err
	}
	defer key.Wipe()

	shards, err := shard.DealUnanimous(key, n)
	if err != nil {
		return err
	}

	if err := writePublicArtifacts(key, basename); err != nil {
		return err
	}

	for i, s := range shards {
		if err := writeShard(s, shardPath(basename, i)); err != nil {
			return err
		}
	}

	log.Infof("genkey: wrote %d shards for %s", n, basename)
	return nil
}

// writePublicArtifacts writes basename.pub and basename.pem, shared by
// genkey and threshold.
func writePublicArtifacts(key *shard.GeneratedKey, basename string) error {
	pub, err := key.PublicKeyPEM()
	if err != nil {
		return err
	}
	if err := os.WriteFile(basename+".pub", []byte(pub), 0o644); err != nil {
		return errors.Wrapf(err, "genkey: failed to write %s.pub", basename)
	}

	cert, err := key.Certificate()
	if err != nil {
		return err
	}
	if err := os.WriteFile(basename+".pem", []byte(cert), 0o644); err != nil {
		return errors.Wrapf(err, "genkey: failed to write %s.pem", basename)
	}

	return nil
}

func writeShard(s *keycodec.Shard, path string) error {
	encoded, err := keycodec.EncodeShardPEM(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return errors.Wrapf(err, "failed to write shard %s", path)
	}
	return nil
}
