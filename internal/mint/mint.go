package mint

import (
	"context"
	"math"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/attestation"
	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/consts"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/store/mintledger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/serial"
)

var maxU64 = new(big.Int).SetUint64(math.MaxUint64)

type Config struct {
	PackageID string
	StateID   string
	GasBudget uint64
	Timeout   time.Duration
}

type Submitter struct {
	exec     Executor
	serial   *serial.Executor
	ledger   mintledger.IStore
	registry registry.IRegistry
	cfg      Config
	logger   *logger.Logger
}

// New serializes every submission from exec's account through queue.
func New(exec Executor, queue *serial.Executor, ledger mintledger.IStore, reg registry.IRegistry, cfg Config, logger *logger.Logger) ISubmitter {
	if cfg.GasBudget == 0 {
		cfg.GasBudget = consts.DefaultGasBudget
	}
	return &Submitter{
		exec:     exec,
		serial:   queue,
		ledger:   ledger,
		registry: reg,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Submitter) Submit(ctx context.Context, intent *model.Intent, att attestation.Attestation, signature []byte) (*sui.TxResult, error) {
	if intent.Status == model.IntentStatusMinted {
		return &sui.TxResult{Digest: intent.MintTxDigest, Status: sui.TxStatusSuccess}, nil
	}

	call, err := s.mintCall(intent, att, signature)
	if err != nil {
		return nil, errs.WithIntent(err, intent.IntentID)
	}

	if _, _, err := s.ledger.Begin(ctx, intent.IntentID, intent.DepositNonce); err != nil {
		return nil, err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	res, err := serial.Run(ctx, s.serial, func(ctx context.Context) (*sui.TxResult, error) {
		// re-read under the account queue, an earlier job may have settled this row
		sub, err := s.ledger.Get(ctx, intent.IntentID, intent.DepositNonce)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, errs.New(errs.KindInternal, "Submit", "mint ledger row disappeared")
		}

		switch {
		case sub.Status == model.MintSubmissionSucceeded:
			return &sui.TxResult{Digest: sub.TxDigest, Status: sui.TxStatusSuccess}, nil
		case sub.Status == model.MintSubmissionRejected:
			return nil, errs.Newf(errs.KindMintRejected, "Submit", "previously rejected: %s", sub.Error)
		case sub.TxDigest != "":
			return s.resume(ctx, intent, call, sub)
		}
		return s.submit(ctx, intent, call)
	})
	if err != nil {
		if errs.KindOf(err) == errs.KindInternal && interrupted(err) {
			err = errs.Wrap(errs.KindSubmissionFailure, "Submit", err)
		}
		return nil, errs.WithIntent(err, intent.IntentID)
	}
	return res, nil
}

// resume settles a pending row whose transaction may already be on chain. A digest the node
// does not know yet is re-executed from the stored bytes, which returns the original effects if it
// landed. A new transaction is built only when the stored one can no longer execute.
func (s *Submitter) resume(ctx context.Context, intent *model.Intent, call sui.MoveCall, sub *model.MintSubmission) (*sui.TxResult, error) {
	res, err := s.exec.Lookup(ctx, sub.TxDigest)
	if err == nil {
		return s.settle(ctx, sub.IntentID, sub.DepositNonce, res)
	}
	if !unknownDigest(err) {
		s.logger.Error("[Submit][Lookup]", map[string]string{
			"intent_id": sub.IntentID,
			"digest":    sub.TxDigest,
			"error":     err.Error(),
		})
		return nil, errs.Wrap(errs.KindSubmissionFailure, "Submit", err)
	}

	if len(sub.TxBytes) == 0 {
		return s.submit(ctx, intent, call)
	}

	res, err = s.exec.Execute(ctx, &sui.PreparedTx{TxBytes: sub.TxBytes, Digest: sub.TxDigest})
	switch {
	case err == nil:
		if res.Digest == "" {
			res.Digest = sub.TxDigest
		}
		return s.settle(ctx, sub.IntentID, sub.DepositNonce, res)
	case sui.IsStaleInput(err):
		s.logger.Warn("[Submit][Rebuild]", map[string]string{
			"intent_id": sub.IntentID,
			"digest":    sub.TxDigest,
			"error":     err.Error(),
		})
		return s.submit(ctx, intent, call)
	default:
		s.logger.Error("[Submit][Reexecute]", map[string]string{
			"intent_id": sub.IntentID,
			"digest":    sub.TxDigest,
			"error":     err.Error(),
		})
		return nil, errs.Wrap(errs.KindSubmissionFailure, "Submit", err)
	}
}

func (s *Submitter) submit(ctx context.Context, intent *model.Intent, call sui.MoveCall) (*sui.TxResult, error) {
	tx, err := s.exec.Build(ctx, call)
	if err != nil {
		return nil, errs.Wrap(errs.KindSubmissionFailure, "Submit", err)
	}

	if err := s.ledger.RecordDigest(ctx, intent.IntentID, intent.DepositNonce, tx.Digest, tx.TxBytes); err != nil {
		return nil, err
	}

	res, err := s.exec.Execute(ctx, tx)
	if err != nil {
		s.logger.Error("[Submit][Execute]", map[string]string{
			"intent_id": intent.IntentID,
			"digest":    tx.Digest,
			"error":     err.Error(),
		})
		return nil, errs.Wrap(errs.KindSubmissionFailure, "Submit", err)
	}
	if res.Digest == "" {
		res.Digest = tx.Digest
	}
	return s.settle(ctx, intent.IntentID, intent.DepositNonce, res)
}

func (s *Submitter) settle(ctx context.Context, intentID, depositNonce string, res *sui.TxResult) (*sui.TxResult, error) {
	if !res.Succeeded() {
		earlier, err := s.supersededSuccess(ctx, intentID, depositNonce)
		if err != nil {
			return nil, err
		}
		if earlier == nil {
			return nil, s.reject(ctx, intentID, depositNonce, res)
		}
		res = earlier
	}

	if err := s.ledger.MarkSucceeded(ctx, intentID, depositNonce, res.Digest); err != nil {
		return nil, err
	}
	s.logger.Info("mint submitted", map[string]string{
		"intent_id": intentID,
		"digest":    res.Digest,
	})
	return res, nil
}

func (s *Submitter) reject(ctx context.Context, intentID, depositNonce string, res *sui.TxResult) error {
	reason := res.Error
	if reason == "" {
		reason = "execution failed"
	}
	if err := s.ledger.MarkRejected(ctx, intentID, depositNonce, reason); err != nil {
		return err
	}
	s.logger.Warn("[Submit][Rejected]", map[string]string{
		"intent_id": intentID,
		"digest":    res.Digest,
		"reason":    reason,
	})
	return errs.Newf(errs.KindMintRejected, "Submit", "%s", reason)
}

// supersededSuccess looks up digests replaced by a rebuild. One of them may have landed after all
// and consumed the deposit nonce, in which case the failed rebuild is not a rejection.
func (s *Submitter) supersededSuccess(ctx context.Context, intentID, depositNonce string) (*sui.TxResult, error) {
	sub, err := s.ledger.Get(ctx, intentID, depositNonce)
	if err != nil || sub == nil {
		return nil, err
	}

	for _, digest := range sub.SupersededDigests {
		res, err := s.exec.Lookup(ctx, digest)
		if unknownDigest(err) {
			continue
		}
		if err != nil {
			s.logger.Error("[Submit][LookupSuperseded]", map[string]string{
				"intent_id": intentID,
				"digest":    digest,
				"error":     err.Error(),
			})
			return nil, errs.Wrap(errs.KindSubmissionFailure, "Submit", err)
		}
		if res.Succeeded() {
			if res.Digest == "" {
				res.Digest = digest
			}
			return res, nil
		}
	}
	return nil, nil
}

func (s *Submitter) mintCall(intent *model.Intent, att attestation.Attestation, signature []byte) (sui.MoveCall, error) {
	if att.Amount == nil || att.Amount.Sign() < 0 || att.Amount.Cmp(maxU64) > 0 {
		return sui.MoveCall{}, errs.New(errs.KindMintRejected, "Submit", "amount does not fit in u64")
	}

	receiver, err := sui.NormalizeAddress(att.Receiver)
	if err != nil {
		return sui.MoveCall{}, errs.Wrap(errs.KindMintRejected, "Submit", err)
	}

	coinType, err := s.coinType(intent)
	if err != nil {
		return sui.MoveCall{}, err
	}

	return sui.MoveCall{
		PackageID:     s.cfg.PackageID,
		Module:        consts.SuiBridgeModule,
		Function:      consts.SuiMintFunction,
		TypeArguments: []string{coinType},
		Arguments: []interface{}{
			s.cfg.StateID,
			att.Amount.String(),
			receiver,
			sui.U8Vector(att.DepositNonce),
			sui.U8Vector(signature),
		},
		GasBudget: s.cfg.GasBudget,
	}, nil
}

// coinType prefers the wrapped type registered on the input token, then the output token's.
func (s *Submitter) coinType(intent *model.Intent) (string, error) {
	for _, coinID := range []string{intent.InputTokenID, intent.OutputTokenID} {
		tok, ok := s.registry.LookupToken(coinID)
		if ok && tok.BridgeWrappedID != "" {
			return tok.BridgeWrappedID, nil
		}
	}
	return "", errs.Newf(errs.KindUnsupportedToken, "Submit", "no bridge type for %s", intent.OutputTokenID)
}

// unknownDigest reports a node answer for a digest it has not seen, as opposed to a transport failure.
func unknownDigest(err error) bool {
	var rpcErr *sui.RPCError
	return err != nil && errors.As(err, &rpcErr)
}

// interrupted reports errors from the queue itself, the job either never ran or was cut short.
func interrupted(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, serial.ErrClosed)
}
