package issuer_test

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/issuer"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

// scalarOne is the secp256k1 private key 1, whose addresses are well known.
var scalarOne = append(make([]byte, 31), 0x01)

func repeated(chunks ...[]byte) *bytes.Reader {
	return bytes.NewReader(bytes.Join(chunks, nil))
}

var _ = Describe("Issuer", func() {
	var (
		log  *logger.Logger
		evm  = model.ChainDescriptor{ChainID: "80002", ChainType: model.ChainTypeEVM}
		suiC = model.ChainDescriptor{ChainID: "sui:testnet", ChainType: model.ChainTypeSui}
		btc  = model.ChainDescriptor{ChainID: "bitcoin:testnet", ChainType: model.ChainTypeBitcoin, Network: "testnet3"}
		btcM = model.ChainDescriptor{ChainID: "bitcoin", ChainType: model.ChainTypeBitcoin, Network: "mainnet"}
	)

	BeforeEach(func() {
		log = logger.New("test")
	})

	Describe("evm", func() {
		It("derives the checksummed address of the drawn key", func() {
			issued, err := issuer.New(repeated(scalarOne), log).Issue(evm)
			Expect(err).NotTo(HaveOccurred())
			Expect(issued.Address).To(Equal("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"))
			Expect(issued.IntentID).To(Equal(crypto.Keccak256Hash([]byte(issued.Address)).Hex()))

			key, err := crypto.HexToECDSA(strings.TrimPrefix(issued.PrivateKey, "0x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(crypto.PubkeyToAddress(key.PublicKey)).To(Equal(common.HexToAddress(issued.Address)))
		})

		It("skips entropy that is not a valid scalar", func() {
			issued, err := issuer.New(repeated(make([]byte, 32), scalarOne), log).Issue(evm)
			Expect(err).NotTo(HaveOccurred())
			Expect(issued.Address).To(Equal("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"))
		})

		It("fails when entropy runs out", func() {
			_, err := issuer.New(bytes.NewReader(make([]byte, 10)), log).Issue(evm)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("sui", func() {
		It("hashes the flagged public key with blake2b", func() {
			seed, _ := hex.DecodeString("9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")

			issued, err := issuer.New(bytes.NewReader(seed), log).Issue(suiC)
			Expect(err).NotTo(HaveOccurred())
			Expect(issued.PublicKey).To(Equal("d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a"))
			Expect(issued.Address).To(Equal("0x304af458e90e97c841685b8cbbc59b909f3e2cf150df590ada4c81452c29737d"))
			Expect(issued.PrivateKey).To(HavePrefix("suiprivkey1"))

			key, err := sui.DecodePrivateKey(issued.PrivateKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(sui.AddressFromPublicKey(key.Public().(ed25519.PublicKey))).To(Equal(issued.Address))
		})

	})

	Describe("bitcoin", func() {
		It("derives a native segwit address for the network", func() {
			issued, err := issuer.New(repeated(scalarOne), log).Issue(btc)
			Expect(err).NotTo(HaveOccurred())
			Expect(issued.Address).To(Equal("tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"))

			wif, err := btcutil.DecodeWIF(issued.PrivateKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(wif.IsForNet(&chaincfg.TestNet3Params)).To(BeTrue())
		})

		It("uses mainnet encodings", func() {
			issued, err := issuer.New(repeated(scalarOne), log).Issue(btcM)
			Expect(err).NotTo(HaveOccurred())
			Expect(issued.Address).To(Equal("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"))
			Expect(issued.PrivateKey).To(Equal("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"))
		})

		It("rejects unknown networks", func() {
			_, err := issuer.New(repeated(scalarOne), log).Issue(model.ChainDescriptor{ChainType: model.ChainTypeBitcoin, Network: "dogenet"})
			Expect(errs.KindOf(err)).To(Equal(errs.KindUnsupportedChainType))
		})
	})

	It("rejects unknown chain types", func() {
		_, err := issuer.New(nil, log).Issue(model.ChainDescriptor{ChainID: "cosmoshub-4", ChainType: "cosmos"})
		Expect(errs.KindOf(err)).To(Equal(errs.KindUnsupportedChainType))
	})

	It("never repeats an address with real entropy", func() {
		iss := issuer.New(nil, log)
		seen := map[string]bool{}
		for n := 0; n < 50; n++ {
			issued, err := iss.Issue(evm)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).NotTo(HaveKey(issued.Address))
			seen[issued.Address] = true
		}
	})

	It("keeps the private key out of its string form", func() {
		issued, err := issuer.New(repeated(scalarOne), log).Issue(evm)
		Expect(err).NotTo(HaveOccurred())
		Expect(issued.String()).NotTo(ContainSubstring(strings.TrimPrefix(issued.PrivateKey, "0x")))
	})
})
