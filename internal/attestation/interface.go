package attestation

import (
	"context"
	"math/big"
)

// Attestation authorizes one mint on the destination chain.
type Attestation struct {
	DestinationChainID string
	TokenAddress       string
	Amount             *big.Int
	// SourceChainID is the chain the deposit was observed on.
	SourceChainID string
	Receiver      string
	DepositNonce  []byte
}

// ISigner holds a signing key and never exposes it.
type ISigner interface {
	Sign(ctx context.Context, msg []byte) ([]byte, error)
	PublicKey() []byte
}

type IAttestor interface {
	// Attest encodes the attestation canonically and signs it, returning both.
	Attest(ctx context.Context, a Attestation) (msg []byte, signature []byte, err error)
}
