package attestation

import (
	"encoding/hex"

	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
)

// Encode serializes the attestation in field order destination_chain_id, token_address,
// amount (u256), chain_id, receiver (address), deposit_nonce (vector<u8>).
func Encode(a Attestation) ([]byte, error) {
	if a.DestinationChainID == "" || a.SourceChainID == "" {
		return nil, errs.New(errs.KindSignatureEncoding, "Encode", "chain ids are required")
	}
	if len(a.DepositNonce) == 0 {
		return nil, errs.New(errs.KindSignatureEncoding, "Encode", "deposit nonce is required")
	}

	receiver, err := receiverBytes(a.Receiver)
	if err != nil {
		return nil, errs.Wrap(errs.KindSignatureEncoding, "Encode", err)
	}

	var w bcsWriter
	w.string(a.DestinationChainID)
	w.string(a.TokenAddress)
	if err := w.u256(a.Amount); err != nil {
		return nil, errs.Wrap(errs.KindSignatureEncoding, "Encode", err)
	}
	w.string(a.SourceChainID)
	if err := w.address(receiver); err != nil {
		return nil, errs.Wrap(errs.KindSignatureEncoding, "Encode", err)
	}
	w.bytesVec(a.DepositNonce)

	return w.Bytes(), nil
}

func receiverBytes(addr string) ([]byte, error) {
	normalized, err := sui.NormalizeAddress(addr)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(normalized[2:])
}
