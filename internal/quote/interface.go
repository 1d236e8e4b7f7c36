package quote

import (
	"math/big"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

type Request struct {
	InputCoinID  string
	OutputCoinID string
	// InputAmount is in the smallest unit of the input token.
	InputAmount *big.Int
}

type Quote struct {
	InputToken      model.SupportedToken
	OutputToken     model.SupportedToken
	InputAmount     *big.Int
	OutputAmount    *big.Int
	MinOutputAmount *big.Int
}

type IPricer interface {
	// Quote is pure, it performs no I/O and is safe for concurrent use.
	Quote(req Request) (*Quote, error)
}
