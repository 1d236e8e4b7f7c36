package issuer

import (
	"crypto/ed25519"
	"encoding/hex"

	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
)

func (i *Issuer) issueSui() (*IssuedAddress, error) {
	seed, err := i.read32()
	if err != nil {
		return nil, err
	}

	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)

	encoded, err := sui.EncodePrivateKey(seed)
	if err != nil {
		return nil, err
	}

	return &IssuedAddress{
		Address:    sui.AddressFromPublicKey(pub),
		PublicKey:  hex.EncodeToString(pub),
		PrivateKey: encoded,
	}, nil
}
