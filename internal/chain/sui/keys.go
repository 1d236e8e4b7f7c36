package sui

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const privateKeyHRP = "suiprivkey"

// AddressFromPublicKey is blake2b-256 over the scheme flag and the public key.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	h := blake2b.Sum256(append([]byte{ed25519SchemeFlag}, pub...))
	return "0x" + hex.EncodeToString(h[:])
}

// EncodePrivateKey renders an Ed25519 seed in the bech32 "suiprivkey" form wallets import.
func EncodePrivateKey(seed []byte) (string, error) {
	if len(seed) != ed25519.SeedSize {
		return "", errors.Errorf("sui seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	data, err := bech32.ConvertBits(append([]byte{ed25519SchemeFlag}, seed...), 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "convert bits")
	}
	return bech32.Encode(privateKeyHRP, data)
}

// DecodePrivateKey accepts the bech32 form or a hex seed.
func DecodePrivateKey(s string) (ed25519.PrivateKey, error) {
	if raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x")); err == nil && len(raw) == ed25519.SeedSize {
		return ed25519.NewKeyFromSeed(raw), nil
	}

	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode sui private key")
	}
	if hrp != privateKeyHRP {
		return nil, errors.Errorf("unexpected key prefix %q", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, errors.Wrap(err, "convert bits")
	}
	if len(raw) != ed25519.SeedSize+1 || raw[0] != ed25519SchemeFlag {
		return nil, errors.New("only ed25519 sui keys are supported")
	}
	return ed25519.NewKeyFromSeed(raw[1:]), nil
}

// NormalizeAddress left-pads a hex address to 32 bytes and lowercases it.
func NormalizeAddress(addr string) (string, error) {
	h := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(addr)), "0x")
	if h == "" || len(h) > 64 {
		return "", errors.Errorf("invalid sui address %q", addr)
	}
	if _, err := hex.DecodeString(strings.Repeat("0", len(h)%2) + h); err != nil {
		return "", errors.Errorf("invalid sui address %q", addr)
	}
	return "0x" + strings.Repeat("0", 64-len(h)) + h, nil
}
