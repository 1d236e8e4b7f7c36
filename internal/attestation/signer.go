package attestation

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
)

type localSigner struct {
	key ed25519.PrivateKey
}

// NewLocalSigner loads an Ed25519 key in suiprivkey bech32 or hex seed form.
func NewLocalSigner(encoded string) (ISigner, error) {
	key, err := sui.DecodePrivateKey(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "load attestation key")
	}
	return &localSigner{key: key}, nil
}

func (s *localSigner) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ed25519.Sign(s.key, msg), nil
}

func (s *localSigner) PublicKey() []byte {
	return append([]byte(nil), s.key.Public().(ed25519.PublicKey)...)
}

// Transit is the Vault transit capability the remote signer uses.
type Transit interface {
	TransitSign(ctx context.Context, keyName string, input []byte) ([]byte, error)
	TransitPublicKey(ctx context.Context, keyName string) ([]byte, error)
}

type vaultTransitSigner struct {
	transit Transit
	keyName string
	pub     []byte
}

// NewVaultTransitSigner signs with an ed25519 transit key, the private key never leaves Vault.
func NewVaultTransitSigner(ctx context.Context, transit Transit, keyName string) (ISigner, error) {
	pub, err := transit.TransitPublicKey(ctx, keyName)
	if err != nil {
		return nil, errors.Wrap(err, "read transit public key")
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, errors.Errorf("transit key %s is not ed25519", keyName)
	}
	return &vaultTransitSigner{transit: transit, keyName: keyName, pub: pub}, nil
}

func (s *vaultTransitSigner) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	sig, err := s.transit.TransitSign(ctx, s.keyName, msg)
	if err != nil {
		return nil, err
	}
	if !ed25519.Verify(s.pub, msg, sig) {
		return nil, errors.New("transit signature does not verify against the key")
	}
	return sig, nil
}

func (s *vaultTransitSigner) PublicKey() []byte {
	return append([]byte(nil), s.pub...)
}
