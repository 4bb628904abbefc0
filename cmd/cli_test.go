package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/osresearch/cosign/shard"
)

// nonexistentPath returns a path inside t's scratch dir that is
// guaranteed not to exist.
func nonexistentPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "does-not-exist")
}

func TestSignMissingKeyfileExitsNonZero(t *testing.T) {
	rootCmd.SetArgs([]string{"sign", nonexistentPath(t)})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("sign: expected an error for a missing keyfile, got nil")
	}
}

func TestMergeMissingPubkeyExitsNonZero(t *testing.T) {
	sigPath := filepath.Join(t.TempDir(), "sig.bin")
	if err := os.WriteFile(sigPath, make([]byte, 256), 0o644); err != nil {
		t.Fatalf("failed to write scratch signature file: %v", err)
	}

	rootCmd.SetArgs([]string{"merge", nonexistentPath(t), sigPath})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("merge: expected an error for a missing public key file, got nil")
	}
}

func TestMergeMissingSignatureExitsNonZero(t *testing.T) {
	pubPath := filepath.Join(t.TempDir(), "pub.pem")
	key, err := shard.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate a test key: %v", err)
	}
	defer key.Wipe()
	pub, err := key.PublicKeyPEM()
	if err != nil {
		t.Fatalf("failed to render public key PEM: %v", err)
	}
	if err := os.WriteFile(pubPath, []byte(pub), 0o644); err != nil {
		t.Fatalf("failed to write scratch public key file: %v", err)
	}

	rootCmd.SetArgs([]string{"merge", pubPath, nonexistentPath(t)})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("merge: expected an error for a missing signature file, got nil")
	}
}
