package issuer

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
)

func (i *Issuer) issueEVM() (*IssuedAddress, error) {
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		seed, err := i.read32()
		if err != nil {
			return nil, err
		}

		key, err := crypto.ToECDSA(seed)
		if err != nil {
			// zero or >= N, draw again
			continue
		}

		return &IssuedAddress{
			Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
			PublicKey:  hexutil.Encode(crypto.CompressPubkey(&key.PublicKey)),
			PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		}, nil
	}
	return nil, errs.New(errs.KindInternal, "issueEVM", "no valid secp256k1 scalar from entropy")
}
