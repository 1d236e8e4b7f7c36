package model

type ChainType string

const (
	ChainTypeEVM     ChainType = "evm"
	ChainTypeSui     ChainType = "sui"
	ChainTypeBitcoin ChainType = "bitcoin"
)

type SupportedToken struct {
	CoinID   string `json:"coinId"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Address  string `json:"address"`
	ChainID  string `json:"chainId"`
	// BridgeWrappedID is the Move type minted on the destination chain for this token.
	BridgeWrappedID string `json:"bridgeWrappedId"`
}

type ChainDescriptor struct {
	ChainID     string    `json:"chainId"`
	ChainType   ChainType `json:"chainType"`
	RPCEndpoint string    `json:"rpcEndpoint"`
	// Network selects address encoding where a chain type has several (bitcoin mainnet/testnet).
	Network string `json:"network,omitempty"`
}
