package sui

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	ed25519SchemeFlag = 0x00
	digestTypeTag     = "TransactionData::"
)

// transactionIntent is the scope/version/app-id prefix of a user transaction.
var transactionIntent = []byte{0x00, 0x00, 0x00}

// Executor builds, signs and executes transactions from a single sender account.
// It is not safe to execute concurrently from the same account, callers serialize.
type Executor struct {
	client  *Client
	key     ed25519.PrivateKey
	address string
}

func NewExecutor(client *Client, key ed25519.PrivateKey) *Executor {
	return &Executor{
		client:  client,
		key:     key,
		address: AddressFromPublicKey(key.Public().(ed25519.PublicKey)),
	}
}

func (e *Executor) Address() string {
	return e.address
}

func (e *Executor) Build(ctx context.Context, call MoveCall) (*PreparedTx, error) {
	tx, err := e.client.UnsafeMoveCall(ctx, e.address, call)
	if err != nil {
		e.client.logger.Error("[Build][UnsafeMoveCall]", map[string]string{
			"function": call.Module + "::" + call.Function,
			"error":    err.Error(),
		})
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(tx.TxBytes)
	if err != nil {
		return nil, errors.Wrap(err, "decode tx bytes")
	}

	return &PreparedTx{TxBytes: raw, Digest: TransactionDigest(raw)}, nil
}

func (e *Executor) Execute(ctx context.Context, tx *PreparedTx) (*TxResult, error) {
	sig := SignTransaction(e.key, tx.TxBytes)

	resp, err := e.client.ExecuteTransactionBlock(ctx, base64.StdEncoding.EncodeToString(tx.TxBytes), []string{sig})
	if err != nil {
		e.client.logger.Error("[Execute][ExecuteTransactionBlock]", map[string]string{
			"digest": tx.Digest,
			"error":  err.Error(),
		})
		return nil, err
	}
	return toTxResult(resp), nil
}

// Lookup reports the recorded outcome of a digest. Unknown digests come back as *RPCError.
func (e *Executor) Lookup(ctx context.Context, digest string) (*TxResult, error) {
	resp, err := e.client.GetTransactionBlock(ctx, digest)
	if err != nil {
		return nil, err
	}
	return toTxResult(resp), nil
}

func toTxResult(resp *TransactionBlockResponse) *TxResult {
	res := &TxResult{Digest: resp.Digest, Status: TxStatusFailure}
	if resp.Effects != nil {
		res.Status = resp.Effects.Status.Status
		res.Error = resp.Effects.Status.Error
	}
	return res
}

// SignTransaction returns the serialized signature flag || sig || pubkey, base64 encoded.
func SignTransaction(key ed25519.PrivateKey, txBytes []byte) string {
	digest := blake2b.Sum256(append(append([]byte{}, transactionIntent...), txBytes...))
	sig := ed25519.Sign(key, digest[:])

	out := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	out = append(out, ed25519SchemeFlag)
	out = append(out, sig...)
	out = append(out, key.Public().(ed25519.PublicKey)...)
	return base64.StdEncoding.EncodeToString(out)
}

// TransactionDigest is the base58 digest the node assigns to the transaction data.
func TransactionDigest(txBytes []byte) string {
	h := blake2b.Sum256(append([]byte(digestTypeTag), txBytes...))
	return base58.Encode(h[:])
}
