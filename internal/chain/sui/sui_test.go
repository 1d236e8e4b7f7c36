package sui

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

type fakeNode struct {
	t       *testing.T
	handler map[string]func(params []json.RawMessage) (interface{}, *RPCError)
	calls   []string
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	f.calls = append(f.calls, req.Method)

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	h, ok := f.handler[req.Method]
	if !ok {
		resp["error"] = RPCError{Code: -32601, Message: "Method not found"}
	} else if result, rpcErr := h(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newFakeNode(t *testing.T) (*fakeNode, *Client) {
	node := &fakeNode{t: t, handler: map[string]func([]json.RawMessage) (interface{}, *RPCError){}}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)
	return node, NewClient(srv.URL, logger.New("test"))
}

func TestClient_Balances(t *testing.T) {
	node, c := newFakeNode(t)
	node.handler["suix_getBalance"] = func(p []json.RawMessage) (interface{}, *RPCError) {
		var coinType string
		require.NoError(t, json.Unmarshal(p[1], &coinType))
		if coinType == "0xbad::nope::NOPE" {
			return nil, &RPCError{Code: -32602, Message: "Invalid struct type"}
		}
		return Balance{CoinType: coinType, CoinObjectCount: 1, TotalBalance: "18446744073709551616"}, nil
	}

	native, err := c.NativeBalance(context.Background(), "0x2")
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551616", native.String())

	_, err = c.TokenBalance(context.Background(), "0xbad::nope::NOPE", "0x2")
	assert.Equal(t, errs.KindUnsupportedToken, errs.KindOf(err))

	_, err = c.TokenBalance(context.Background(), "0x41E91E218d89a42f7039a038f9f4a956165b47a0", "0x2")
	assert.Equal(t, errs.KindUnsupportedToken, errs.KindOf(err))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := NewClient(srv.URL, logger.New("test"))
	srv.Close()

	_, err := c.NativeBalance(context.Background(), "0x2")
	assert.Equal(t, errs.KindAdapterUnavailable, errs.KindOf(err))
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, logger.New("test"))

	_, err := c.NativeBalance(context.Background(), "0x2")
	assert.Equal(t, errs.KindAdapterUnavailable, errs.KindOf(err))
}

func TestExecutor_BuildSignExecute(t *testing.T) {
	node, c := newFakeNode(t)
	key := ed25519.NewKeyFromSeed(make([]byte, 32))
	exec := NewExecutor(c, key)
	txBytes := []byte("transaction-data")

	node.handler["unsafe_moveCall"] = func(p []json.RawMessage) (interface{}, *RPCError) {
		var sender, fn, budget string
		require.NoError(t, json.Unmarshal(p[0], &sender))
		require.NoError(t, json.Unmarshal(p[3], &fn))
		require.NoError(t, json.Unmarshal(p[7], &budget))
		assert.Equal(t, exec.Address(), sender)
		assert.Equal(t, "mint", fn)
		assert.Equal(t, "50000000", budget)

		var args []json.RawMessage
		require.NoError(t, json.Unmarshal(p[5], &args))
		assert.JSONEq(t, `[1,2,255]`, string(args[1]))
		return TransactionBlockBytes{TxBytes: base64.StdEncoding.EncodeToString(txBytes)}, nil
	}
	node.handler["sui_executeTransactionBlock"] = func(p []json.RawMessage) (interface{}, *RPCError) {
		var sigs []string
		require.NoError(t, json.Unmarshal(p[1], &sigs))
		require.Len(t, sigs, 1)

		raw, err := base64.StdEncoding.DecodeString(sigs[0])
		require.NoError(t, err)
		require.Len(t, raw, 97)
		assert.Equal(t, byte(0x00), raw[0])

		pub := ed25519.PublicKey(raw[65:])
		msg := blake2b.Sum256(append([]byte{0, 0, 0}, txBytes...))
		assert.True(t, ed25519.Verify(pub, msg[:], raw[1:65]))

		return TransactionBlockResponse{
			Digest:  TransactionDigest(txBytes),
			Effects: &TransactionEffects{Status: ExecutionStatus{Status: TxStatusSuccess}},
		}, nil
	}

	prepared, err := exec.Build(context.Background(), MoveCall{
		PackageID: "0xbeef",
		Module:    "bridge",
		Function:  "mint",
		Arguments: []interface{}{"0xstate", U8Vector([]byte{1, 2, 255})},
	})
	require.NoError(t, err)
	assert.Equal(t, txBytes, prepared.TxBytes)
	assert.NotEmpty(t, prepared.Digest)

	res, err := exec.Execute(context.Background(), prepared)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, prepared.Digest, res.Digest)
}

func TestExecutor_FailedEffects(t *testing.T) {
	node, c := newFakeNode(t)
	exec := NewExecutor(c, ed25519.NewKeyFromSeed(make([]byte, 32)))

	node.handler["sui_executeTransactionBlock"] = func(p []json.RawMessage) (interface{}, *RPCError) {
		return TransactionBlockResponse{
			Digest: "abc",
			Effects: &TransactionEffects{Status: ExecutionStatus{
				Status: TxStatusFailure,
				Error:  "MoveAbort(MoveLocation { module: bridge, function: 3 }, 2) in command 0",
			}},
		}, nil
	}
	node.handler["sui_getTransactionBlock"] = func(p []json.RawMessage) (interface{}, *RPCError) {
		return nil, &RPCError{Code: -32602, Message: "Could not find the referenced transaction"}
	}

	res, err := exec.Execute(context.Background(), &PreparedTx{TxBytes: []byte("x"), Digest: "abc"})
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.Error, "MoveAbort")

	_, err = exec.Lookup(context.Background(), "missing")
	var rpcErr *RPCError
	assert.ErrorAs(t, err, &rpcErr)
}

func TestKeys(t *testing.T) {
	seed := make([]byte, 32)
	seed[31] = 7

	encoded, err := EncodePrivateKey(seed)
	require.NoError(t, err)
	assert.Contains(t, encoded, "suiprivkey1")

	key, err := DecodePrivateKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, ed25519.NewKeyFromSeed(seed), key)

	fromHex, err := DecodePrivateKey("0x0000000000000000000000000000000000000000000000000000000000000007")
	require.NoError(t, err)
	assert.Equal(t, key, fromHex)

	_, err = DecodePrivateKey("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4")
	assert.Error(t, err)

	_, err = EncodePrivateKey([]byte{1})
	assert.Error(t, err)
}

func TestNormalizeAddress(t *testing.T) {
	addr, err := NormalizeAddress("0x2")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000002", addr)

	addr, err = NormalizeAddress("0xE2229604840661668E09035A65F33CFDB62200445B1528496D0A6872B1AE89AA")
	require.NoError(t, err)
	assert.Equal(t, "0xe2229604840661668e09035a65f33cfdb62200445b1528496d0a6872b1ae89aa", addr)

	for _, bad := range []string{"", "0x", "0xzz", "0x" + string(make([]byte, 65))} {
		_, err := NormalizeAddress(bad)
		assert.Error(t, err, bad)
	}
}

func TestTransactionDigestIsStable(t *testing.T) {
	assert.Equal(t, TransactionDigest([]byte("a")), TransactionDigest([]byte("a")))
	assert.NotEqual(t, TransactionDigest([]byte("a")), TransactionDigest([]byte("b")))
}

func TestClient_Ping(t *testing.T) {
	node, c := newFakeNode(t)
	assert.Equal(t, errs.KindAdapterUnavailable, errs.KindOf(c.Ping(context.Background())))

	node.handler["sui_getLatestCheckpointSequenceNumber"] = func([]json.RawMessage) (interface{}, *RPCError) {
		return "1024", nil
	}
	assert.NoError(t, c.Ping(context.Background()))
}

func TestIsStaleInput(t *testing.T) {
	stale := &RPCError{
		Code:    -32002,
		Message: "Transaction validator signing failed due to issues with transaction inputs",
		Data:    json.RawMessage(`["ObjectVersionUnavailableForConsumption { provided_obj_ref: (0x5, SequenceNumber(7)) }"]`),
	}
	assert.True(t, IsStaleInput(stale))
	assert.True(t, IsStaleInput(errs.Wrap(errs.KindSubmissionFailure, "Execute", stale)))

	assert.False(t, IsStaleInput(&RPCError{Code: -32602, Message: "Could not find the referenced transaction"}))
	assert.False(t, IsStaleInput(context.DeadlineExceeded))
	assert.False(t, IsStaleInput(nil))
}
