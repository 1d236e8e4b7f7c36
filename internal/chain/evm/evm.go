package evm

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

const erc20BalanceOfABI = `[{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20BalanceOfABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// Backend is the subset of ethclient the adapter reads through.
type Backend interface {
	bind.ContractCaller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type Adapter struct {
	backend   Backend
	logger    *logger.Logger
	codeCache *cache.Cache
}

func New(backend Backend, logger *logger.Logger) *Adapter {
	return &Adapter{
		backend:   backend,
		logger:    logger,
		codeCache: cache.New(30*time.Minute, time.Hour),
	}
}

// Dial connects to a JSON-RPC endpoint.
func Dial(ctx context.Context, endpoint string, logger *logger.Logger) (*Adapter, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "dial evm rpc")
	}
	return New(client, logger), nil
}

func (a *Adapter) ChainType() model.ChainType {
	return model.ChainTypeEVM
}

func (a *Adapter) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, errs.Newf(errs.KindValidation, "NativeBalance", "invalid evm address %q", address)
	}

	balance, err := a.backend.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		a.logger.Error("[NativeBalance][BalanceAt]", map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return nil, errs.Wrap(errs.KindAdapterUnavailable, "NativeBalance", err)
	}
	return balance, nil
}

func (a *Adapter) TokenBalance(ctx context.Context, token, address string) (*big.Int, error) {
	if !common.IsHexAddress(token) {
		return nil, errs.Newf(errs.KindUnsupportedToken, "TokenBalance", "invalid token address %q", token)
	}
	if !common.IsHexAddress(address) {
		return nil, errs.Newf(errs.KindValidation, "TokenBalance", "invalid evm address %q", address)
	}

	tokenAddr := common.HexToAddress(token)
	hasCode, err := a.hasCode(ctx, tokenAddr)
	if err != nil {
		return nil, err
	}
	if !hasCode {
		return nil, errs.Newf(errs.KindUnsupportedToken, "TokenBalance", "no contract at %s", tokenAddr.Hex())
	}

	contract := bind.NewBoundContract(tokenAddr, erc20ABI, a.backend, nil, nil)

	var out []interface{}
	err = contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.HexToAddress(address))
	if err != nil {
		a.logger.Error("[TokenBalance][BalanceOf]", map[string]string{
			"token":   tokenAddr.Hex(),
			"address": address,
			"error":   err.Error(),
		})
		if isContractError(err) {
			return nil, errs.Wrap(errs.KindUnsupportedToken, "TokenBalance", err)
		}
		return nil, errs.Wrap(errs.KindAdapterUnavailable, "TokenBalance", err)
	}

	if len(out) != 1 {
		return nil, errs.Newf(errs.KindUnsupportedToken, "TokenBalance", "balanceOf returned %d values", len(out))
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errs.Newf(errs.KindUnsupportedToken, "TokenBalance", "balanceOf returned %T", out[0])
	}
	return balance, nil
}

func (a *Adapter) hasCode(ctx context.Context, addr common.Address) (bool, error) {
	if _, ok := a.codeCache.Get(addr.Hex()); ok {
		return true, nil
	}

	code, err := a.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		a.logger.Error("[TokenBalance][CodeAt]", map[string]string{
			"token": addr.Hex(),
			"error": err.Error(),
		})
		return false, errs.Wrap(errs.KindAdapterUnavailable, "TokenBalance", err)
	}
	if len(code) == 0 {
		return false, nil
	}

	// only presence is cached, a missing contract may still be deployed
	a.codeCache.SetDefault(addr.Hex(), true)
	return true, nil
}

// isContractError separates reverts and undecodable output from transport failures.
func isContractError(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	if errors.Is(err, bind.ErrNoCode) {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "abi:") || strings.Contains(msg, "execution reverted")
}

func (a *Adapter) Ping(ctx context.Context) error {
	if _, err := a.backend.BalanceAt(ctx, common.Address{}, nil); err != nil {
		return errs.Wrap(errs.KindAdapterUnavailable, "Ping", err)
	}
	return nil
}
