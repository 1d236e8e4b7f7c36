package sui

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/consts"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// invalidParams is the JSON-RPC code the node uses for malformed coin types and addresses.
const invalidParams = -32602

func (c *Client) ChainType() model.ChainType {
	return model.ChainTypeSui
}

func (c *Client) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	return c.balance(ctx, "NativeBalance", consts.SuiNativeCoinType, address)
}

// TokenBalance takes the coin type, for example 0x2::sui::SUI, as the token.
func (c *Client) TokenBalance(ctx context.Context, token, address string) (*big.Int, error) {
	if !strings.Contains(token, "::") {
		return nil, errs.Newf(errs.KindUnsupportedToken, "TokenBalance", "%q is not a coin type", token)
	}
	return c.balance(ctx, "TokenBalance", token, address)
}

func (c *Client) balance(ctx context.Context, op, coinType, address string) (*big.Int, error) {
	b, err := c.GetBalance(ctx, address, coinType)
	if err != nil {
		c.logger.Error("["+op+"][GetBalance]", map[string]string{
			"address":   address,
			"coin_type": coinType,
			"error":     err.Error(),
		})
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == invalidParams {
			return nil, errs.Wrap(errs.KindUnsupportedToken, op, err)
		}
		return nil, errs.Wrap(errs.KindAdapterUnavailable, op, err)
	}

	total, ok := new(big.Int).SetString(b.TotalBalance, 10)
	if !ok {
		return nil, errs.Newf(errs.KindAdapterUnavailable, op, "malformed balance %q", b.TotalBalance)
	}
	return total, nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func (c *Client) Ping(ctx context.Context) error {
	var checkpoint string
	if err := c.call(ctx, "sui_getLatestCheckpointSequenceNumber", &checkpoint); err != nil {
		return errs.Wrap(errs.KindAdapterUnavailable, "Ping", err)
	}
	return nil
}
