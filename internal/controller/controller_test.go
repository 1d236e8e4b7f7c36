package controller_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/attestation"
	"github.com/dwarvesf/bridge-relayer/internal/chain"
	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/controller"
	"github.com/dwarvesf/bridge-relayer/internal/custody"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/issuer"
	"github.com/dwarvesf/bridge-relayer/internal/mint"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/quote"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/store/intent"
	"github.com/dwarvesf/bridge-relayer/internal/store/mintledger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/serial"
	"github.com/dwarvesf/bridge-relayer/internal/verifier"
)

const wpolType = "0xb1::wpol::WPOL"

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	Expect(ok).To(BeTrue())
	return v
}

var _ = Describe("Controller", func() {
	var (
		ctx      context.Context
		adapter  *fakeAdapter
		suiChain *fakeChain
		keys     custody.IKeyStore
		intents  *intent.MemoryStore
		signer   attestation.ISigner
		observer *countingObserver
		queues   []*serial.Executor
		ctrl     controller.IController
	)

	BeforeEach(func() {
		ctx = context.Background()
		log := logger.New("test")

		reg, err := registry.New(
			[]model.ChainDescriptor{
				{ChainID: "80002", ChainType: model.ChainTypeEVM},
				{ChainID: "sui:testnet", ChainType: model.ChainTypeSui},
			},
			[]model.SupportedToken{
				{CoinID: "pol-amoy", Decimals: 18, ChainID: "80002", Address: "0x0000000000000000000000000000000000000000"},
				{CoinID: "wpol-sui", Decimals: 18, ChainID: "sui:testnet", Address: wpolType, BridgeWrappedID: wpolType},
				{CoinID: "usdc-sui", Decimals: 6, ChainID: "sui:testnet", Address: "0xc::usdc::USDC"},
			},
		)
		Expect(err).NotTo(HaveOccurred())

		pricer, err := quote.NewFromPercent(reg, 90, 80)
		Expect(err).NotTo(HaveOccurred())

		encoded, err := sui.EncodePrivateKey(bytes.Repeat([]byte{0x07}, ed25519.SeedSize))
		Expect(err).NotTo(HaveOccurred())
		signer, err = attestation.NewLocalSigner(encoded)
		Expect(err).NotTo(HaveOccurred())

		adapter = newFakeAdapter()
		adapters := chain.NewSet()
		Expect(adapters.Register("80002", adapter)).To(Succeed())

		suiChain = newFakeChain()
		keys = custody.NewMemory()
		intents = intent.NewMemory()
		observer = newCountingObserver()

		signQueue, mintQueue := serial.New(16), serial.New(16)
		queues = []*serial.Executor{signQueue, mintQueue}

		ctrl = controller.New(controller.Deps{
			Registry:  reg,
			Pricer:    pricer,
			Issuer:    issuer.New(nil, log),
			KeyStore:  keys,
			Intents:   intents,
			Verifier:  verifier.New(adapters, log),
			Attestor:  attestation.New(signer, signQueue, log),
			Submitter: mint.New(suiChain, mintQueue, mintledger.NewMemory(), reg, mint.Config{PackageID: "0xb1", StateID: "0x5"}, log),
			Observer:  observer,
		}, controller.Options{}, log)
	})

	AfterEach(func() {
		for _, q := range queues {
			q.Close()
		}
	})

	create := func() *model.Intent {
		in, err := ctrl.CreateIntent(ctx, controller.CreateIntentRequest{
			InputCoinID:     "pol-amoy",
			OutputCoinID:    "wpol-sui",
			Amount:          "2",
			ReceiverAddress: "0x2",
		})
		Expect(err).NotTo(HaveOccurred())
		return in
	}

	Describe("CreateIntent", func() {
		It("quotes and persists a created intent", func() {
			in := create()

			Expect(in.Status).To(Equal(model.IntentStatusCreated))
			Expect(in.InputAmount.Big()).To(Equal(wei("2000000000000000000")))
			Expect(in.OutputAmount.Big()).To(Equal(wei("1800000000000000000")))
			Expect(in.MinOutputAmount.Big()).To(Equal(wei("1600000000000000000")))
			Expect(in.ReceiverAddress).To(Equal("0x0000000000000000000000000000000000000000000000000000000000000002"))
			Expect(in.DepositAddress).To(HavePrefix("0x"))
			Expect(in.IntentID).To(Equal(issuer.IntentID(in.DepositAddress)))
			Expect("0x" + in.DepositNonce).To(Equal(in.IntentID))

			stored, err := ctrl.GetIntent(ctx, in.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.DepositAddress).To(Equal(in.DepositAddress))
		})

		It("hands the deposit key to custody and keeps only the reference", func() {
			in := create()
			Expect(in.DepositKeyRef).To(Equal(custody.DepositKeyRef(in.IntentID)))

			key, err := keys.Get(ctx, in.DepositKeyRef)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).NotTo(BeEmpty())
		})

		It("issues distinct addresses for identical requests", func() {
			a, b := create(), create()
			Expect(a.DepositAddress).NotTo(Equal(b.DepositAddress))
			Expect(a.IntentID).NotTo(Equal(b.IntentID))
		})

		DescribeTable("rejects bad requests",
			func(req controller.CreateIntentRequest, kind errs.Kind) {
				_, err := ctrl.CreateIntent(ctx, req)
				Expect(errs.KindOf(err)).To(Equal(kind))
			},
			Entry("unknown input coin",
				controller.CreateIntentRequest{InputCoinID: "doge", OutputCoinID: "wpol-sui", Amount: "1", ReceiverAddress: "0x2"},
				errs.KindUnsupportedToken),
			Entry("pair without a bridge type",
				controller.CreateIntentRequest{InputCoinID: "pol-amoy", OutputCoinID: "usdc-sui", Amount: "1", ReceiverAddress: "0x2"},
				errs.KindUnsupportedToken),
			Entry("malformed amount",
				controller.CreateIntentRequest{InputCoinID: "pol-amoy", OutputCoinID: "wpol-sui", Amount: "two", ReceiverAddress: "0x2"},
				errs.KindValidation),
			Entry("zero amount",
				controller.CreateIntentRequest{InputCoinID: "pol-amoy", OutputCoinID: "wpol-sui", Amount: "0", ReceiverAddress: "0x2"},
				errs.KindValidation),
			Entry("receiver is not a sui address",
				controller.CreateIntentRequest{InputCoinID: "pol-amoy", OutputCoinID: "wpol-sui", Amount: "1", ReceiverAddress: "bob"},
				errs.KindValidation),
		)
	})

	Describe("AdvanceOnDeposit", func() {
		It("leaves an underfunded intent created", func() {
			in := create()
			adapter.fund(in.DepositAddress, wei("1000000000000000000"))

			got, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
			Expect(errs.KindOf(err)).To(Equal(errs.KindDepositNotConfirmed))
			Expect(got.Status).To(Equal(model.IntentStatusCreated))
			Expect(suiChain.executions()).To(BeZero())
		})

		It("treats repeated calls as no-ops until the deposit is enough", func() {
			in := create()
			adapter.fund(in.DepositAddress, wei("1000000000000000000"))

			for i := 0; i < 3; i++ {
				got, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
				Expect(errs.KindOf(err)).To(Equal(errs.KindDepositNotConfirmed))
				Expect(got.Status).To(Equal(model.IntentStatusCreated))
			}
			Expect(suiChain.executions()).To(BeZero())

			stored, err := ctrl.GetIntent(ctx, in.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(model.IntentStatusCreated))

			adapter.fund(in.DepositAddress, wei("2000000000000000000"))

			got, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(model.IntentStatusMinted))

			again, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Status).To(Equal(model.IntentStatusMinted))
			Expect(suiChain.executions()).To(Equal(1))
		})

		It("drives a funded intent to minted", func() {
			in := create()
			adapter.fund(in.DepositAddress, wei("2000000000000000000"))

			got, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(model.IntentStatusMinted))
			Expect(got.MintTxDigest).NotTo(BeEmpty())

			call := suiChain.lastCall()
			Expect(call.TypeArguments).To(Equal([]string{wpolType}))
			Expect(call.Arguments[1]).To(Equal("1800000000000000000"))

			nonce, err := got.DepositNonceBytes()
			Expect(err).NotTo(HaveOccurred())
			msg, err := attestation.Encode(attestation.Attestation{
				DestinationChainID: "sui:testnet",
				TokenAddress:       in.InputTokenAddress,
				Amount:             wei("1800000000000000000"),
				SourceChainID:      "80002",
				Receiver:           in.ReceiverAddress,
				DepositNonce:       nonce,
			})
			Expect(err).NotTo(HaveOccurred())
			sig, err := hexutil.Decode(got.AttestationSignature)
			Expect(err).NotTo(HaveOccurred())
			Expect(ed25519.Verify(signer.PublicKey(), msg, sig)).To(BeTrue())

			Expect(observer.transitions["attested>minted"]).To(Equal(1))
		})

		It("is a no-op once minted", func() {
			in := create()
			adapter.fund(in.DepositAddress, wei("3000000000000000000"))

			_, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
			Expect(err).NotTo(HaveOccurred())
			got, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(model.IntentStatusMinted))
			Expect(suiChain.executions()).To(Equal(1))
		})

		It("mints once under concurrent advances", func() {
			in := create()
			adapter.fund(in.DepositAddress, wei("2000000000000000000"))

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, _ = ctrl.AdvanceOnDeposit(ctx, in.IntentID)
				}()
			}
			wg.Wait()

			got, err := ctrl.GetIntent(ctx, in.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(model.IntentStatusMinted))
			Expect(suiChain.executions()).To(Equal(1))
		})

		It("keeps state on adapter outages", func() {
			in := create()
			adapter.fail(errs.Wrap(errs.KindAdapterUnavailable, "NativeBalance", errors.New("dial tcp")))

			got, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
			Expect(errs.IsRetryable(err)).To(BeTrue())
			Expect(got.Status).To(Equal(model.IntentStatusCreated))
		})

		It("fails the intent when the mint is rejected", func() {
			in := create()
			adapter.fund(in.DepositAddress, wei("2000000000000000000"))
			suiChain.abort = "MoveAbort(bridge::mint, 2)"

			got, err := ctrl.AdvanceOnDeposit(ctx, in.IntentID)
			Expect(errs.KindOf(err)).To(Equal(errs.KindMintRejected))
			Expect(got.Status).To(Equal(model.IntentStatusFailed))
			Expect(got.FailureKind).To(Equal(string(errs.KindMintRejected)))
			Expect(got.FailureReason).To(ContainSubstring(in.IntentID))
			Expect(observer.failures[string(errs.KindMintRejected)]).To(Equal(1))
		})

		It("reports unknown intents", func() {
			_, err := ctrl.AdvanceOnDeposit(ctx, "0xnope")
			Expect(errs.KindOf(err)).To(Equal(errs.KindIntentNotFound))
		})
	})

	Describe("ReconcilePending", func() {
		It("advances funded intents and leaves the rest", func() {
			funded, waiting := create(), create()
			adapter.fund(funded.DepositAddress, wei("2000000000000000000"))

			Expect(ctrl.ReconcilePending(ctx)).To(Succeed())

			got, err := ctrl.GetIntent(ctx, funded.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(model.IntentStatusMinted))

			got, err = ctrl.GetIntent(ctx, waiting.IntentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(model.IntentStatusCreated))
		})

		It("reports intents that hit retryable failures", func() {
			create()
			adapter.fail(errs.Wrap(errs.KindAdapterUnavailable, "NativeBalance", errors.New("dial tcp")))

			Expect(ctrl.ReconcilePending(ctx)).NotTo(Succeed())
		})
	})
})
