package consts

const (
	// NativeTokenAddress marks the native asset of an EVM chain in the token registry.
	NativeTokenAddress = "0x0000000000000000000000000000000000000000"

	// BitcoinNativeAddress marks BTC itself, bitcoin has no token contracts.
	BitcoinNativeAddress = "native"

	SuiNativeCoinType = "0x2::sui::SUI"

	BTC_DECIMALS = 8
	SUI_DECIMALS = 9
)

const (
	SuiBridgeModule  = "bridge"
	SuiMintFunction  = "mint"
	SuiAddressLength = 32
	MaxConflictRetry = 3
	DefaultListLimit = 100
	ReconcileJobName = "intent_reconciliation"
	DefaultGasBudget = 50_000_000
)
