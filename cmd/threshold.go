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
	rootCmd.AddCommand(thresholdCmd)
}

var thresholdCmd = &cobra.Command{
	Use:   "threshold basename [k0 k1]",
	Short: "Deal a fresh 2-of-3 threshold key, or re-split one from two existing shards",
	Args:  cobra.RangeArgs(1, 3),
	RunE:  runThreshold,
}

func runThreshold(cmd *cobra.Command, args []string) error {
	basename := args[0]

	var key *shard.GeneratedKey
	var err error

	switch len(args) {
	case 1:
		log.Info("threshold: generating a fresh 2-of-3 threshold key")
		key, err = shard.GenerateKey()
	case 3:
		log.Infof("threshold: re-splitting from %s and %s", args[1], args[2])
		var a, b *keycodec.Shard
		a, err = readShard(args[1])
		if err != nil {
			return err
		}
		b, err = readShard(args[2])
		if err != nil {
			return err
		}
		key, err = shard.Resplit(a, b)
	default:
		return errors.New("threshold: expected 1 argument (fresh) or 3 arguments (re-split)")
	}
	if err != nil {
		return err
	}
	defer key.Wipe()

	shards, err := shard.DealThreshold(key)
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

	log.Infof("threshold: wrote 3 shards for %s", basename)
	return nil
}

func shardPath(basename string, i int) string {
	return basename + "-" + strconv.Itoa(i) + ".key"
}

func readShard(path string) (*keycodec.Shard, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read shard %s", path)
	}
	s, err := keycodec.DecodeShardPEM(b)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode shard %s", path)
	}
	return s, nil
}
