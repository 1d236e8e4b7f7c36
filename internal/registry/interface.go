package registry

import "github.com/dwarvesf/bridge-relayer/internal/model"

// IRegistry is the static token and chain reference data, read-only after load.
type IRegistry interface {
	LookupToken(coinID string) (model.SupportedToken, bool)
	LookupChain(chainID string) (model.ChainDescriptor, bool)
	Tokens() []model.SupportedToken
	Chains() []model.ChainDescriptor
}
