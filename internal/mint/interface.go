package mint

import (
	"context"

	"github.com/dwarvesf/bridge-relayer/internal/attestation"
	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// Executor is the destination account that builds and runs mint transactions.
type Executor interface {
	Address() string
	Build(ctx context.Context, call sui.MoveCall) (*sui.PreparedTx, error)
	Execute(ctx context.Context, tx *sui.PreparedTx) (*sui.TxResult, error)
	Lookup(ctx context.Context, digest string) (*sui.TxResult, error)
}

type ISubmitter interface {
	// Submit mints at most once per (intent, deposit nonce). Repeated calls return the recorded result.
	Submit(ctx context.Context, intent *model.Intent, att attestation.Attestation, signature []byte) (*sui.TxResult, error)
}
