package issuer

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
)

// NetworkParams maps a registry network name to btcd chain parameters.
func NetworkParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	}
	return nil, errors.Errorf("unknown bitcoin network %q", network)
}

func (i *Issuer) issueBitcoin(network string) (*IssuedAddress, error) {
	params, err := NetworkParams(network)
	if err != nil {
		return nil, errs.Wrap(errs.KindUnsupportedChainType, "issueBitcoin", err)
	}

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		seed, err := i.read32()
		if err != nil {
			return nil, err
		}

		var scalar secp256k1.ModNScalar
		if overflow := scalar.SetByteSlice(seed); overflow || scalar.IsZero() {
			continue
		}
		privKey := secp256k1.NewPrivateKey(&scalar)
		pubKey := privKey.PubKey()

		addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pubKey.SerializeCompressed()), params)
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, "issueBitcoin", errors.Wrap(err, "derive p2wpkh address"))
		}

		wif, err := btcutil.NewWIF(privKey, params, true)
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, "issueBitcoin", errors.Wrap(err, "encode wif"))
		}

		return &IssuedAddress{
			Address:    addr.EncodeAddress(),
			PublicKey:  hex.EncodeToString(pubKey.SerializeCompressed()),
			PrivateKey: wif.String(),
		}, nil
	}
	return nil, errs.New(errs.KindInternal, "issueBitcoin", "no valid secp256k1 scalar from entropy")
}
