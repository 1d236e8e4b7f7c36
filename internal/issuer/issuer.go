package issuer

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

// maxKeyAttempts bounds retries when the entropy does not form a valid scalar.
const maxKeyAttempts = 8

type Issuer struct {
	mux     sync.Mutex
	entropy io.Reader
	logger  *logger.Logger
}

// New returns an issuer reading key entropy from r, crypto/rand when r is nil.
func New(r io.Reader, logger *logger.Logger) IIssuer {
	if r == nil {
		r = rand.Reader
	}
	return &Issuer{entropy: r, logger: logger}
}

func (i *Issuer) Issue(chain model.ChainDescriptor) (*IssuedAddress, error) {
	var (
		issued *IssuedAddress
		err    error
	)

	switch chain.ChainType {
	case model.ChainTypeEVM:
		issued, err = i.issueEVM()
	case model.ChainTypeSui:
		issued, err = i.issueSui()
	case model.ChainTypeBitcoin:
		issued, err = i.issueBitcoin(chain.Network)
	default:
		return nil, errs.Newf(errs.KindUnsupportedChainType, "Issue", "chain %s has unsupported type %q", chain.ChainID, chain.ChainType)
	}
	if err != nil {
		i.logger.Error("[Issue][Generate]", map[string]string{
			"chain_id": chain.ChainID,
			"error":    err.Error(),
		})
		return nil, err
	}

	issued.IntentID = IntentID(issued.Address)
	return issued, nil
}

// IntentID is keccak256 over the UTF-8 bytes of the address string, as rendered at issuance.
func IntentID(address string) string {
	return crypto.Keccak256Hash([]byte(address)).Hex()
}

func (i *Issuer) read32() ([]byte, error) {
	i.mux.Lock()
	defer i.mux.Unlock()

	b := make([]byte, 32)
	if _, err := io.ReadFull(i.entropy, b); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "read32", errors.Wrap(err, "entropy source exhausted"))
	}
	return b, nil
}
