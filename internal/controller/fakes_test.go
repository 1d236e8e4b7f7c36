package controller_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/model"
)

type fakeAdapter struct {
	mu       sync.Mutex
	balances map[string]*big.Int
	err      error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{balances: map[string]*big.Int{}}
}

func (f *fakeAdapter) fund(address string, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[address] = amount
}

func (f *fakeAdapter) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAdapter) ChainType() model.ChainType { return model.ChainTypeEVM }

func (f *fakeAdapter) NativeBalance(_ context.Context, address string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.balances[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeAdapter) TokenBalance(ctx context.Context, _, address string) (*big.Int, error) {
	return f.NativeBalance(ctx, address)
}

// fakeChain executes mint calls and rejects a deposit nonce it has already seen,
// like the bridge module does.
type fakeChain struct {
	mu       sync.Mutex
	builds   int
	executes int
	calls    map[string]sui.MoveCall
	txs      map[string]*sui.TxResult
	nonces   map[string]bool
	abort    string
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		calls:  map[string]sui.MoveCall{},
		txs:    map[string]*sui.TxResult{},
		nonces: map[string]bool{},
	}
}

func (f *fakeChain) Address() string { return "0xexecutor" }

func (f *fakeChain) Build(_ context.Context, call sui.MoveCall) (*sui.PreparedTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds++
	raw := []byte(fmt.Sprintf("tx-%d", f.builds))
	tx := &sui.PreparedTx{TxBytes: raw, Digest: sui.TransactionDigest(raw)}
	f.calls[tx.Digest] = call
	return tx, nil
}

func (f *fakeChain) Execute(_ context.Context, tx *sui.PreparedTx) (*sui.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executes++
	if res, ok := f.txs[tx.Digest]; ok {
		return res, nil
	}

	res := &sui.TxResult{Digest: tx.Digest, Status: sui.TxStatusSuccess}
	nonce := fmt.Sprint(f.calls[tx.Digest].Arguments[3])
	switch {
	case f.abort != "":
		res.Status, res.Error = sui.TxStatusFailure, f.abort
	case f.nonces[nonce]:
		res.Status, res.Error = sui.TxStatusFailure, "MoveAbort: nonce already used"
	default:
		f.nonces[nonce] = true
	}
	f.txs[tx.Digest] = res
	return res, nil
}

func (f *fakeChain) Lookup(_ context.Context, digest string) (*sui.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.txs[digest]; ok {
		return res, nil
	}
	return nil, &sui.RPCError{Code: -32602, Message: "not found"}
}

func (f *fakeChain) executions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executes
}

func (f *fakeChain) lastCall() sui.MoveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw := []byte(fmt.Sprintf("tx-%d", f.builds))
	return f.calls[sui.TransactionDigest(raw)]
}

type countingObserver struct {
	mu          sync.Mutex
	transitions map[string]int
	failures    map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{transitions: map[string]int{}, failures: map[string]int{}}
}

func (o *countingObserver) ObserveTransition(from, to model.IntentStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions[string(from)+">"+string(to)]++
}

func (o *countingObserver) ObserveFailure(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[kind]++
}
