package controller

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/attestation"
	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/consts"
	"github.com/dwarvesf/bridge-relayer/internal/custody"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/issuer"
	"github.com/dwarvesf/bridge-relayer/internal/mint"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/quote"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/store/intent"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/verifier"
)

type Deps struct {
	Registry  registry.IRegistry
	Pricer    quote.IPricer
	Issuer    issuer.IIssuer
	KeyStore  custody.IKeyStore
	Intents   intent.IStore
	Verifier  verifier.IVerifier
	Attestor  attestation.IAttestor
	Submitter mint.ISubmitter
	Observer  Observer
}

type Options struct {
	// VerifyTimeout bounds one deposit balance check, zero means no extra bound.
	VerifyTimeout time.Duration
	BatchSize     int
}

type Controller struct {
	registry  registry.IRegistry
	pricer    quote.IPricer
	issuer    issuer.IIssuer
	keyStore  custody.IKeyStore
	intents   intent.IStore
	verifier  verifier.IVerifier
	attestor  attestation.IAttestor
	submitter mint.ISubmitter
	observer  Observer
	opts      Options
	logger    *logger.Logger
}

func New(deps Deps, opts Options, logger *logger.Logger) IController {
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = consts.DefaultListLimit
	}
	return &Controller{
		registry:  deps.Registry,
		pricer:    deps.Pricer,
		issuer:    deps.Issuer,
		keyStore:  deps.KeyStore,
		intents:   deps.Intents,
		verifier:  deps.Verifier,
		attestor:  deps.Attestor,
		submitter: deps.Submitter,
		observer:  deps.Observer,
		opts:      opts,
		logger:    logger,
	}
}

func (c *Controller) CreateIntent(ctx context.Context, req CreateIntentRequest) (*model.Intent, error) {
	inTok, ok := c.registry.LookupToken(req.InputCoinID)
	if !ok {
		return nil, errs.Newf(errs.KindUnsupportedToken, "CreateIntent", "unknown coin %s", req.InputCoinID)
	}
	outTok, ok := c.registry.LookupToken(req.OutputCoinID)
	if !ok {
		return nil, errs.Newf(errs.KindUnsupportedToken, "CreateIntent", "unknown coin %s", req.OutputCoinID)
	}
	if inTok.BridgeWrappedID == "" && outTok.BridgeWrappedID == "" {
		return nil, errs.Newf(errs.KindUnsupportedToken, "CreateIntent", "%s cannot be bridged to %s", inTok.CoinID, outTok.CoinID)
	}

	inChain, ok := c.registry.LookupChain(inTok.ChainID)
	if !ok {
		return nil, errs.Newf(errs.KindUnsupportedChainType, "CreateIntent", "unknown chain %s", inTok.ChainID)
	}
	outChain, ok := c.registry.LookupChain(outTok.ChainID)
	if !ok || outChain.ChainType != model.ChainTypeSui {
		return nil, errs.Newf(errs.KindUnsupportedChainType, "CreateIntent", "cannot mint on chain %s", outTok.ChainID)
	}

	receiver, err := sui.NormalizeAddress(req.ReceiverAddress)
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, "CreateIntent", err)
	}

	units, err := model.ParseUnits(req.Amount, inTok.Decimals)
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, "CreateIntent", err)
	}
	amount, _ := units.BigInt()
	if amount.Sign() <= 0 {
		return nil, errs.New(errs.KindValidation, "CreateIntent", "amount must be positive")
	}

	q, err := c.pricer.Quote(quote.Request{
		InputCoinID:  inTok.CoinID,
		OutputCoinID: outTok.CoinID,
		InputAmount:  amount,
	})
	if err != nil {
		return nil, err
	}

	issued, err := c.issuer.Issue(inChain)
	if err != nil {
		c.logger.Error("[CreateIntent][Issue]", map[string]string{
			"chain_id": inChain.ChainID,
			"error":    err.Error(),
		})
		return nil, err
	}

	ref := custody.DepositKeyRef(issued.IntentID)
	if err := c.keyStore.Put(ctx, ref, issued.PrivateKey); err != nil {
		c.logger.Error("[CreateIntent][KeyStore.Put]", map[string]string{
			"intent_id": issued.IntentID,
			"error":     err.Error(),
		})
		return nil, errs.WithIntent(err, issued.IntentID)
	}

	in := &model.Intent{
		IntentID:           issued.IntentID,
		InputTokenID:       inTok.CoinID,
		InputTokenAddress:  inTok.Address,
		InputChainID:       inTok.ChainID,
		InputAmount:        model.NewAmount(q.InputAmount),
		OutputTokenID:      outTok.CoinID,
		OutputTokenAddress: outTok.Address,
		OutputChainID:      outTok.ChainID,
		OutputAmount:       model.NewAmount(q.OutputAmount),
		MinOutputAmount:    model.NewAmount(q.MinOutputAmount),
		ReceiverAddress:    receiver,
		DepositAddress:     issued.Address,
		DepositKeyRef:      ref,
		DepositNonce:       strings.TrimPrefix(issued.IntentID, "0x"),
	}
	if err := c.intents.Create(ctx, in); err != nil {
		c.logger.Error("[CreateIntent][Create]", map[string]string{
			"intent_id": in.IntentID,
			"error":     err.Error(),
		})
		return nil, err
	}

	c.logger.Info("intent created", map[string]string{
		"intent_id":       in.IntentID,
		"input_token_id":  in.InputTokenID,
		"output_token_id": in.OutputTokenID,
		"deposit_address": in.DepositAddress,
	})
	return in, nil
}

func (c *Controller) GetIntent(ctx context.Context, intentID string) (*model.Intent, error) {
	return c.intents.Get(ctx, intentID)
}

func (c *Controller) AdvanceOnDeposit(ctx context.Context, intentID string) (*model.Intent, error) {
	var lastErr error
	for attempt := 0; attempt < consts.MaxConflictRetry; attempt++ {
		in, err := c.intents.Get(ctx, intentID)
		if err != nil {
			return nil, err
		}

		in, err = c.advance(ctx, in)
		if !errs.Is(err, errs.KindConflict) {
			return in, err
		}

		lastErr = err
		c.logger.Debug("[AdvanceOnDeposit] conflict, re-reading", map[string]string{
			"intent_id": intentID,
		})
	}
	return nil, lastErr
}

// advance walks the state machine from the intent's current status until it
// reaches a terminal state or a step cannot complete yet.
func (c *Controller) advance(ctx context.Context, in *model.Intent) (*model.Intent, error) {
	for {
		var err error
		switch in.Status {
		case model.IntentStatusMinted, model.IntentStatusFailed:
			return in, nil
		case model.IntentStatusCreated:
			in, err = c.confirmDeposit(ctx, in)
		case model.IntentStatusDepositConfirmed:
			in, err = c.attest(ctx, in)
		case model.IntentStatusAttested:
			in, err = c.mint(ctx, in)
		default:
			return in, errs.WithIntent(errs.Newf(errs.KindInternal, "advance", "unknown status %s", in.Status), in.IntentID)
		}
		if err != nil {
			return in, err
		}
	}
}

func (c *Controller) confirmDeposit(ctx context.Context, in *model.Intent) (*model.Intent, error) {
	vctx := ctx
	if c.opts.VerifyTimeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, c.opts.VerifyTimeout)
		defer cancel()
	}

	funded, err := c.verifier.Verify(vctx, in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errs.Wrap(errs.KindAdapterUnavailable, "Verify", err)
		}
		return c.handle(ctx, in, err)
	}
	if !funded {
		return in, errs.WithIntent(errs.New(errs.KindDepositNotConfirmed, "AdvanceOnDeposit", "deposit not confirmed"), in.IntentID)
	}

	return c.transition(ctx, in, model.IntentStatusDepositConfirmed, nil)
}

func (c *Controller) attest(ctx context.Context, in *model.Intent) (*model.Intent, error) {
	att, err := attestationOf(in)
	if err != nil {
		return c.handle(ctx, in, err)
	}

	_, sig, err := c.attestor.Attest(ctx, att)
	if err != nil {
		return c.handle(ctx, in, err)
	}

	return c.transition(ctx, in, model.IntentStatusAttested, func(i *model.Intent) {
		i.AttestationSignature = hexutil.Encode(sig)
	})
}

func (c *Controller) mint(ctx context.Context, in *model.Intent) (*model.Intent, error) {
	att, err := attestationOf(in)
	if err != nil {
		return c.handle(ctx, in, err)
	}
	sig, err := hexutil.Decode(in.AttestationSignature)
	if err != nil {
		return c.handle(ctx, in, errs.Wrap(errs.KindSignatureEncoding, "mint", err))
	}

	res, err := c.submitter.Submit(ctx, in, att, sig)
	if err != nil {
		return c.handle(ctx, in, err)
	}

	return c.transition(ctx, in, model.IntentStatusMinted, func(i *model.Intent) {
		i.MintTxDigest = res.Digest
	})
}

// handle leaves the intent untouched on retryable errors and fails it on fatal ones.
func (c *Controller) handle(ctx context.Context, in *model.Intent, cause error) (*model.Intent, error) {
	cause = errs.WithIntent(cause, in.IntentID)
	if !errs.IsFatal(cause) {
		c.logger.Warn("[AdvanceOnDeposit] retryable failure", map[string]string{
			"intent_id": in.IntentID,
			"status":    string(in.Status),
			"kind":      string(errs.KindOf(cause)),
			"error":     cause.Error(),
		})
		return in, cause
	}

	kind := errs.KindOf(cause)
	failed, err := c.transition(ctx, in, model.IntentStatusFailed, func(i *model.Intent) {
		i.FailureKind = string(kind)
		i.FailureReason = cause.Error()
	})
	if err != nil {
		return in, err
	}

	c.observer.ObserveFailure(string(kind))
	c.logger.Error("[AdvanceOnDeposit] intent failed", map[string]string{
		"intent_id": in.IntentID,
		"kind":      string(kind),
		"error":     cause.Error(),
	})
	return failed, cause
}

func (c *Controller) transition(ctx context.Context, in *model.Intent, next model.IntentStatus, mutate func(*model.Intent)) (*model.Intent, error) {
	updated, err := c.intents.Transition(ctx, in.IntentID, in.Status, next, mutate)
	if err != nil {
		return in, err
	}
	c.observer.ObserveTransition(in.Status, next)
	c.logger.Info("intent transitioned", map[string]string{
		"intent_id": in.IntentID,
		"from":      string(in.Status),
		"to":        string(next),
	})
	return updated, nil
}

func attestationOf(in *model.Intent) (attestation.Attestation, error) {
	nonce, err := in.DepositNonceBytes()
	if err != nil {
		return attestation.Attestation{}, errs.Wrap(errs.KindSignatureEncoding, "attestationOf", err)
	}
	return attestation.Attestation{
		DestinationChainID: in.OutputChainID,
		TokenAddress:       in.InputTokenAddress,
		Amount:             in.OutputAmount.Big(),
		SourceChainID:      in.InputChainID,
		Receiver:           in.ReceiverAddress,
		DepositNonce:       nonce,
	}, nil
}

func (c *Controller) ReconcilePending(ctx context.Context) error {
	pending, err := c.intents.ListByStatus(ctx, model.NonTerminalIntentStatuses, c.opts.BatchSize)
	if err != nil {
		c.logger.Error("[ReconcilePending][ListByStatus]", map[string]string{
			"error": err.Error(),
		})
		return err
	}

	var failed int
	for _, in := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := c.AdvanceOnDeposit(ctx, in.IntentID)
		if err == nil || errs.Is(err, errs.KindDepositNotConfirmed) || errs.IsFatal(err) {
			continue
		}
		failed++
		c.logger.Warn("[ReconcilePending][AdvanceOnDeposit]", map[string]string{
			"intent_id": in.IntentID,
			"kind":      string(errs.KindOf(err)),
			"error":     err.Error(),
		})
	}

	c.logger.Info("reconciliation finished", map[string]string{
		"scanned": strconv.Itoa(len(pending)),
		"failed":  strconv.Itoa(failed),
	})
	if failed > 0 {
		return errors.Errorf("%d of %d intents could not be advanced", failed, len(pending))
	}
	return nil
}
