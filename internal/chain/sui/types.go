package sui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is an error object returned by the node, as opposed to a transport failure.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("sui rpc error %d: %s", e.Code, e.Message)
}

var staleInputMarkers = []string{
	"ObjectVersionUnavailableForConsumption",
	"not available for consumption",
}

// IsStaleInput reports a node rejection because an owned input was already consumed at that
// version. Signed bytes that fail this way can never execute.
func IsStaleInput(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	detail := rpcErr.Message + string(rpcErr.Data)
	for _, marker := range staleInputMarkers {
		if strings.Contains(detail, marker) {
			return true
		}
	}
	return false
}

type Balance struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    string `json:"totalBalance"`
}

type TransactionBlockBytes struct {
	TxBytes string `json:"txBytes"`
}

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type TransactionEffects struct {
	Status ExecutionStatus `json:"status"`
}

type TransactionBlockResponse struct {
	Digest  string              `json:"digest"`
	Effects *TransactionEffects `json:"effects,omitempty"`
}

// MoveCall describes an entry function call. Arguments use the node's JSON argument
// encoding: object ids and addresses as hex strings, integers as decimal strings,
// vector<u8> as arrays of numbers.
type MoveCall struct {
	PackageID     string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []interface{}
	GasBudget     uint64
}

// PreparedTx is a built, unsigned transaction with its digest known up front.
type PreparedTx struct {
	TxBytes []byte
	Digest  string
}

const (
	TxStatusSuccess = "success"
	TxStatusFailure = "failure"
)

type TxResult struct {
	Digest string
	Status string
	// Error is the execution failure reported in effects, for example a Move abort.
	Error string
}

func (r *TxResult) Succeeded() bool {
	return r.Status == TxStatusSuccess
}

// U8Vector renders bytes as the JSON number array the node expects for vector<u8>.
func U8Vector(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}
