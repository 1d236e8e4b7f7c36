package issuer

import (
	"fmt"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// IssuedAddress is a fresh one-time deposit address. PrivateKey is the only copy of the key
// material until it is handed to custody.
type IssuedAddress struct {
	Address    string
	PublicKey  string
	PrivateKey string
	IntentID   string
}

// String leaves the private key out so the value is safe to log.
func (a IssuedAddress) String() string {
	return fmt.Sprintf("IssuedAddress{Address:%s IntentID:%s}", a.Address, a.IntentID)
}

func (a IssuedAddress) GoString() string {
	return a.String()
}

type IIssuer interface {
	// Issue generates a key for the chain's type and derives its native address.
	Issue(chain model.ChainDescriptor) (*IssuedAddress, error)
}
