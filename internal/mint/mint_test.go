package mint

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/bridge-relayer/internal/attestation"
	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/store/mintledger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/serial"
)

const wrappedType = "0xb1::polygon_usdc::POLYGON_USDC"

type fakeExecutor struct {
	mu         sync.Mutex
	builds     int
	executes   int
	lastCall   sui.MoveCall
	digests    []string
	executeErr error
	// landOnError lands the transaction even when executeErr is returned to the caller
	landOnError bool
	outcome     *sui.TxResult
	onChain     map[string]*sui.TxResult
	stale       map[string]bool
	// lookupMisses hides a digest from the next n lookups, as a lagging node does
	lookupMisses map[string]int
	lookupErr    error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		onChain:      map[string]*sui.TxResult{},
		stale:        map[string]bool{},
		lookupMisses: map[string]int{},
	}
}

var (
	errUnknownDigest = &sui.RPCError{Code: -32602, Message: "Could not find the referenced transaction"}
	errStaleInput    = &sui.RPCError{
		Code:    -32002,
		Message: "Transaction validator signing failed due to issues with transaction inputs",
		Data:    []byte(`["ObjectVersionUnavailableForConsumption"]`),
	}
)

func (f *fakeExecutor) Address() string { return "0xexecutor" }

func (f *fakeExecutor) Build(_ context.Context, call sui.MoveCall) (*sui.PreparedTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds++
	f.lastCall = call
	raw := []byte{byte(f.builds)}
	digest := sui.TransactionDigest(raw)
	f.digests = append(f.digests, digest)
	return &sui.PreparedTx{TxBytes: raw, Digest: digest}, nil
}

func (f *fakeExecutor) Execute(_ context.Context, tx *sui.PreparedTx) (*sui.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executes++
	if f.stale[tx.Digest] {
		return nil, errStaleInput
	}
	// the network dedups identical bytes and answers with the recorded effects
	if res, ok := f.onChain[tx.Digest]; ok {
		return res, nil
	}

	res := &sui.TxResult{Digest: tx.Digest, Status: sui.TxStatusSuccess}
	if f.outcome != nil {
		res.Status = f.outcome.Status
		res.Error = f.outcome.Error
	}
	if f.executeErr != nil {
		if f.landOnError {
			f.onChain[tx.Digest] = res
		}
		return nil, f.executeErr
	}
	f.onChain[tx.Digest] = res
	return res, nil
}

func (f *fakeExecutor) Lookup(_ context.Context, digest string) (*sui.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.lookupMisses[digest] > 0 {
		f.lookupMisses[digest]--
		return nil, errUnknownDigest
	}
	res, ok := f.onChain[digest]
	if !ok {
		return nil, errUnknownDigest
	}
	return res, nil
}

type fixture struct {
	exec      *fakeExecutor
	ledger    *mintledger.MemoryStore
	submitter ISubmitter
}

func newFixture(t *testing.T) *fixture {
	reg, err := registry.New(
		[]model.ChainDescriptor{
			{ChainID: "80002", ChainType: model.ChainTypeEVM},
			{ChainID: "sui:testnet", ChainType: model.ChainTypeSui},
		},
		[]model.SupportedToken{
			{CoinID: "usdc-amoy", Decimals: 6, ChainID: "80002", Address: "0x41e9", BridgeWrappedID: wrappedType},
			{CoinID: "usdc-sui", Decimals: 6, ChainID: "sui:testnet", Address: wrappedType},
			{CoinID: "pol-amoy", Decimals: 18, ChainID: "80002", Address: "0x0000000000000000000000000000000000000000"},
		},
	)
	require.NoError(t, err)

	queue := serial.New(4)
	t.Cleanup(queue.Close)

	f := &fixture{exec: newFakeExecutor(), ledger: mintledger.NewMemory()}
	f.submitter = New(f.exec, queue, f.ledger, reg, Config{PackageID: "0xb1", StateID: "0x5"}, logger.New("test"))
	return f
}

func testIntent(amount *big.Int) (*model.Intent, attestation.Attestation) {
	in := &model.Intent{
		IntentID:      "0x01",
		InputTokenID:  "usdc-amoy",
		OutputTokenID: "usdc-sui",
		DepositNonce:  "aa",
		Status:        model.IntentStatusAttested,
		OutputAmount:  model.NewAmount(amount),
	}
	att := attestation.Attestation{
		DestinationChainID: "sui:testnet",
		TokenAddress:       "0x41e9",
		Amount:             amount,
		SourceChainID:      "80002",
		Receiver:           "0x2",
		DepositNonce:       []byte{0xaa},
	}
	return in, att
}

func TestSubmit_MintsOnceAndReplays(t *testing.T) {
	f := newFixture(t)
	amount, _ := new(big.Int).SetString("1800000000000000000", 10)
	in, att := testIntent(amount)

	res, err := f.submitter.Submit(context.Background(), in, att, []byte{1, 2})
	require.NoError(t, err)
	assert.True(t, res.Succeeded())

	call := f.exec.lastCall
	assert.Equal(t, "bridge", call.Module)
	assert.Equal(t, "mint", call.Function)
	assert.Equal(t, []string{wrappedType}, call.TypeArguments)
	assert.Equal(t, "1800000000000000000", call.Arguments[1])
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000002", call.Arguments[2])
	assert.Equal(t, []int{0xaa}, call.Arguments[3])

	again, err := f.submitter.Submit(context.Background(), in, att, []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, res.Digest, again.Digest)
	assert.Equal(t, 1, f.exec.executes)

	sub, err := f.ledger.Get(context.Background(), in.IntentID, in.DepositNonce)
	require.NoError(t, err)
	assert.Equal(t, model.MintSubmissionSucceeded, sub.Status)
}

func TestSubmit_AlreadyMinted(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(1))
	in.Status = model.IntentStatusMinted
	in.MintTxDigest = "D"

	res, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.NoError(t, err)
	assert.Equal(t, "D", res.Digest)
	assert.Zero(t, f.exec.builds)
}

func TestSubmit_AmountAboveU64(t *testing.T) {
	f := newFixture(t)
	amount := new(big.Int).Lsh(big.NewInt(1), 64)
	in, att := testIntent(amount)

	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	assert.True(t, errs.Is(err, errs.KindMintRejected))
	assert.Zero(t, f.exec.builds)
}

func TestSubmit_MoveAbortIsFinal(t *testing.T) {
	f := newFixture(t)
	f.exec.outcome = &sui.TxResult{Status: sui.TxStatusFailure, Error: "MoveAbort(bridge, 3)"}
	in, att := testIntent(big.NewInt(5))

	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	assert.True(t, errs.Is(err, errs.KindMintRejected))
	assert.True(t, errs.IsFatal(err))

	_, err = f.submitter.Submit(context.Background(), in, att, nil)
	assert.True(t, errs.Is(err, errs.KindMintRejected))
	assert.Equal(t, 1, f.exec.executes)
}

func TestSubmit_TransportFailureResumesByDigest(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))

	f.exec.executeErr = errors.New("connection reset")
	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	assert.True(t, errs.Is(err, errs.KindSubmissionFailure))
	assert.True(t, errs.IsRetryable(err))

	sub, err := f.ledger.Get(context.Background(), in.IntentID, in.DepositNonce)
	require.NoError(t, err)
	assert.Equal(t, model.MintSubmissionPending, sub.Status)
	require.NotEmpty(t, sub.TxDigest)

	// the transaction landed even though the response was lost
	f.exec.onChain[sub.TxDigest] = &sui.TxResult{Digest: sub.TxDigest, Status: sui.TxStatusSuccess}
	f.exec.executeErr = nil

	res, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.NoError(t, err)
	assert.Equal(t, sub.TxDigest, res.Digest)
	assert.Equal(t, 1, f.exec.builds)
}

func TestSubmit_UnknownDigestReexecutesStoredBytes(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))

	f.exec.executeErr = errors.New("timeout")
	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.Error(t, err)

	sub, err := f.ledger.Get(context.Background(), in.IntentID, in.DepositNonce)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, sub.TxBytes)

	f.exec.executeErr = nil
	res, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, sub.TxDigest, res.Digest)
	assert.Equal(t, 1, f.exec.builds)
	assert.Equal(t, 2, f.exec.executes)
}

func TestSubmit_LateLandingKeepsFirstMint(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))

	// the first transaction lands but the response times out and the node has not indexed it
	f.exec.executeErr = errors.New("timeout")
	f.exec.landOnError = true
	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	assert.True(t, errs.Is(err, errs.KindSubmissionFailure))
	first := f.exec.digests[0]
	f.exec.lookupMisses[first] = 1

	// a rebuilt transaction would abort on the used nonce
	f.exec.executeErr = nil
	f.exec.landOnError = false
	f.exec.outcome = &sui.TxResult{Status: sui.TxStatusFailure, Error: "MoveAbort(bridge, EUsedNonce)"}

	res, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.NoError(t, err)
	assert.Equal(t, first, res.Digest)
	assert.Equal(t, 1, f.exec.builds)

	sub, err := f.ledger.Get(context.Background(), in.IntentID, in.DepositNonce)
	require.NoError(t, err)
	assert.Equal(t, model.MintSubmissionSucceeded, sub.Status)
	assert.Equal(t, first, sub.TxDigest)
}

func TestSubmit_StaleStoredTxRebuilds(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))

	f.exec.executeErr = errors.New("timeout")
	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.Error(t, err)
	first := f.exec.digests[0]
	f.exec.stale[first] = true

	f.exec.executeErr = nil
	res, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.exec.builds)
	assert.Equal(t, f.exec.digests[1], res.Digest)

	sub, err := f.ledger.Get(context.Background(), in.IntentID, in.DepositNonce)
	require.NoError(t, err)
	assert.Equal(t, model.MintSubmissionSucceeded, sub.Status)
	assert.Equal(t, []string{first}, sub.SupersededDigests)
}

func TestSubmit_AbortAfterRebuildFindsEarlierMint(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))

	f.exec.executeErr = errors.New("timeout")
	f.exec.landOnError = true
	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.Error(t, err)
	first := f.exec.digests[0]

	// a lagging node cannot find the first digest once and reports its inputs as consumed,
	// by the time the rebuild aborts on the used nonce the first mint is visible
	f.exec.lookupMisses[first] = 1
	f.exec.stale[first] = true
	f.exec.executeErr = nil
	f.exec.landOnError = false
	f.exec.outcome = &sui.TxResult{Status: sui.TxStatusFailure, Error: "MoveAbort(bridge, EUsedNonce)"}

	res, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.NoError(t, err)
	assert.Equal(t, first, res.Digest)
	assert.Equal(t, 2, f.exec.builds)

	sub, err := f.ledger.Get(context.Background(), in.IntentID, in.DepositNonce)
	require.NoError(t, err)
	assert.Equal(t, model.MintSubmissionSucceeded, sub.Status)
	assert.Equal(t, first, sub.TxDigest)
}

func TestSubmit_AbortAfterRebuildWithNoEarlierMintIsRejected(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))

	f.exec.executeErr = errors.New("timeout")
	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.Error(t, err)
	f.exec.stale[f.exec.digests[0]] = true

	f.exec.executeErr = nil
	f.exec.outcome = &sui.TxResult{Status: sui.TxStatusFailure, Error: "MoveAbort(bridge, 3)"}

	_, err = f.submitter.Submit(context.Background(), in, att, nil)
	assert.True(t, errs.Is(err, errs.KindMintRejected))
	assert.Equal(t, 2, f.exec.builds)
}

func TestSubmit_LookupTransportFailure(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))

	f.exec.executeErr = errors.New("timeout")
	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	require.Error(t, err)

	f.exec.lookupErr = errors.New("dial tcp")
	_, err = f.submitter.Submit(context.Background(), in, att, nil)
	assert.True(t, errs.Is(err, errs.KindSubmissionFailure))
	assert.Equal(t, 1, f.exec.builds)
}

func TestSubmit_NoBridgeType(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))
	in.InputTokenID = "pol-amoy"

	_, err := f.submitter.Submit(context.Background(), in, att, nil)
	assert.True(t, errs.Is(err, errs.KindUnsupportedToken))
}

func TestSubmit_ConcurrentCallsExecuteOnce(t *testing.T) {
	f := newFixture(t)
	in, att := testIntent(big.NewInt(5))

	var wg sync.WaitGroup
	digests := make([]string, 8)
	for i := range digests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.submitter.Submit(context.Background(), in, att, nil)
			if err == nil {
				digests[i] = res.Digest
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.exec.executes)
	for _, d := range digests {
		assert.Equal(t, digests[0], d)
		assert.NotEmpty(t, d)
	}
}
