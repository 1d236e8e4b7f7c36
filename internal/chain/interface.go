package chain

import (
	"context"
	"math/big"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// IAdapter is the read capability every supported chain exposes to the verifier.
// Transport failures come back as errs.KindAdapterUnavailable, unknown or non-contract
// tokens as errs.KindUnsupportedToken.
type IAdapter interface {
	ChainType() model.ChainType
	NativeBalance(ctx context.Context, address string) (*big.Int, error)
	TokenBalance(ctx context.Context, token, address string) (*big.Int, error)
}

// IPinger is implemented by adapters that can cheaply prove their endpoint is reachable.
type IPinger interface {
	Ping(ctx context.Context) error
}
