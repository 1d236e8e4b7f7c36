package sui

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/consts"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

// Client speaks Sui JSON-RPC over HTTP.
type Client struct {
	http   *resty.Client
	logger *logger.Logger
	nextID atomic.Uint64
}

func NewClient(endpoint string, logger *logger.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(endpoint).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

// call returns *RPCError for node side errors and a plain error for transport failures.
func (c *Client) call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}

	var out rpcResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params}).
		SetResult(&out).
		SetError(&out).
		Post("")
	if err != nil {
		return errors.Wrapf(err, "%s", method)
	}

	if out.Error != nil {
		return out.Error
	}
	if resp.IsError() {
		return errors.Errorf("%s: http status %d", method, resp.StatusCode())
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(out.Result, result); err != nil {
		return errors.Wrapf(err, "%s: decode result", method)
	}
	return nil
}

func (c *Client) GetBalance(ctx context.Context, owner, coinType string) (*Balance, error) {
	var b Balance
	if err := c.call(ctx, "suix_getBalance", &b, owner, coinType); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UnsafeMoveCall(ctx context.Context, sender string, call MoveCall) (*TransactionBlockBytes, error) {
	gasBudget := call.GasBudget
	if gasBudget == 0 {
		gasBudget = consts.DefaultGasBudget
	}
	typeArgs := call.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := call.Arguments
	if args == nil {
		args = []interface{}{}
	}

	var tx TransactionBlockBytes
	err := c.call(ctx, "unsafe_moveCall", &tx,
		sender,
		call.PackageID,
		call.Module,
		call.Function,
		typeArgs,
		args,
		nil,
		formatUint(gasBudget),
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string) (*TransactionBlockResponse, error) {
	var resp TransactionBlockResponse
	err := c.call(ctx, "sui_executeTransactionBlock", &resp,
		txBytes,
		signatures,
		map[string]bool{"showEffects": true},
		"WaitForLocalExecution",
	)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetTransactionBlock(ctx context.Context, digest string) (*TransactionBlockResponse, error) {
	var resp TransactionBlockResponse
	if err := c.call(ctx, "sui_getTransactionBlock", &resp, digest, map[string]bool{"showEffects": true}); err != nil {
		return nil, err
	}
	return &resp, nil
}
