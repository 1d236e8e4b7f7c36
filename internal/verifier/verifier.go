package verifier

import (
	"context"
	"math/big"
	"strings"

	"github.com/dwarvesf/bridge-relayer/internal/chain"
	"github.com/dwarvesf/bridge-relayer/internal/consts"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

type Verifier struct {
	adapters *chain.Set
	logger   *logger.Logger
}

func New(adapters *chain.Set, logger *logger.Logger) IVerifier {
	return &Verifier{adapters: adapters, logger: logger}
}

func (v *Verifier) Verify(ctx context.Context, intent *model.Intent) (bool, error) {
	adapter, err := v.adapters.Get(intent.InputChainID)
	if err != nil {
		return false, errs.WithIntent(err, intent.IntentID)
	}

	var balance *big.Int
	if IsNative(intent.InputTokenAddress) {
		balance, err = adapter.NativeBalance(ctx, intent.DepositAddress)
	} else {
		balance, err = adapter.TokenBalance(ctx, intent.InputTokenAddress, intent.DepositAddress)
	}
	if err != nil {
		v.logger.Error("[Verify][Balance]", map[string]string{
			"intent_id": intent.IntentID,
			"chain_id":  intent.InputChainID,
			"error":     err.Error(),
		})
		return false, errs.WithIntent(err, intent.IntentID)
	}

	ok := balance.Cmp(intent.InputAmount.Big()) >= 0
	v.logger.Debug("[Verify] deposit balance", map[string]string{
		"intent_id": intent.IntentID,
		"balance":   balance.String(),
		"required":  intent.InputAmount.String(),
	})
	return ok, nil
}

// IsNative reports whether a registry token address is the chain's native asset sentinel.
func IsNative(tokenAddress string) bool {
	switch strings.ToLower(tokenAddress) {
	case "", consts.NativeTokenAddress, consts.BitcoinNativeAddress, strings.ToLower(consts.SuiNativeCoinType):
		return true
	}
	return false
}
