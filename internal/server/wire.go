package server

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/attestation"
	"github.com/dwarvesf/bridge-relayer/internal/chain"
	"github.com/dwarvesf/bridge-relayer/internal/chain/bitcoin"
	"github.com/dwarvesf/bridge-relayer/internal/chain/evm"
	"github.com/dwarvesf/bridge-relayer/internal/chain/sui"
	"github.com/dwarvesf/bridge-relayer/internal/custody"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/monitoring"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/utils/config"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/vault"
)

// buildAdapters dials every registry chain and wraps it in a circuit breaker.
func buildAdapters(ctx context.Context, appConfig *config.AppConfig, reg registry.IRegistry, metrics *monitoring.ExternalAPIMetrics, logger *logger.Logger) (*chain.Set, error) {
	set := chain.NewSet()
	timeouts := monitoring.TimeoutConfig{
		RequestTimeout:     appConfig.Timeouts.ChainRequest,
		HealthCheckTimeout: monitoring.DefaultTimeoutConfig.HealthCheckTimeout,
	}

	for _, desc := range reg.Chains() {
		var adapter chain.IAdapter
		switch desc.ChainType {
		case model.ChainTypeEVM:
			a, err := evm.Dial(ctx, desc.RPCEndpoint, logger)
			if err != nil {
				return nil, errors.Wrapf(err, "chain %s", desc.ChainID)
			}
			adapter = a
		case model.ChainTypeSui:
			adapter = sui.NewClient(desc.RPCEndpoint, logger)
		case model.ChainTypeBitcoin:
			adapter = bitcoin.New(desc.RPCEndpoint, logger)
		default:
			return nil, errs.Newf(errs.KindUnsupportedChainType, "buildAdapters", "chain %s has type %q", desc.ChainID, desc.ChainType)
		}

		wrapped, err := monitoring.NewCircuitBreakerAdapterWithTimeout(desc.ChainID, adapter,
			monitoring.BreakerConfigFor(string(desc.ChainType)), timeouts, metrics, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "breaker for chain %s", desc.ChainID)
		}
		if err := set.Register(desc.ChainID, wrapped); err != nil {
			return nil, err
		}

		logger.Info("[Server][buildAdapters] chain registered", map[string]string{
			"chainId":   desc.ChainID,
			"chainType": string(desc.ChainType),
		})
	}
	return set, nil
}

// newVaultClient returns nil when neither custody nor signing goes through Vault.
func newVaultClient(ctx context.Context, appConfig *config.AppConfig) (*vault.VaultClient, error) {
	if appConfig.Custody.Driver != "vault" && appConfig.Signer.Driver != "vault" {
		return nil, nil
	}
	return vault.New(ctx, vault.Options{
		Addr:    appConfig.Vault.Addr,
		KVMount: appConfig.Vault.KVMount,
		Token:   appConfig.Vault.Token,
		Role:    appConfig.Vault.Role,
	})
}

func buildKeyStore(appConfig *config.AppConfig, vc *vault.VaultClient, logger *logger.Logger) (custody.IKeyStore, error) {
	switch appConfig.Custody.Driver {
	case "vault":
		return custody.NewVault(vc, appConfig.Vault.KVPath, logger), nil
	case "memory":
		if appConfig.Environment.IsProduction() {
			return nil, errors.New("memory custody is not allowed in production")
		}
		return custody.NewMemory(), nil
	}
	return nil, errors.Errorf("unknown CUSTODY_DRIVER %q", appConfig.Custody.Driver)
}

// secret returns the inline value or, when only a ref is configured, reads it from custody.
func secret(ctx context.Context, keyStore custody.IKeyStore, inline, ref string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if ref == "" {
		return "", errors.New("no key or key reference configured")
	}
	return keyStore.Get(ctx, ref)
}

func buildSigner(ctx context.Context, appConfig *config.AppConfig, keyStore custody.IKeyStore, vc *vault.VaultClient) (attestation.ISigner, error) {
	switch appConfig.Signer.Driver {
	case "vault":
		return attestation.NewVaultTransitSigner(ctx, vc, appConfig.Signer.VaultTransitKey)
	case "local":
		key, err := secret(ctx, keyStore, appConfig.Signer.PrivateKey, appConfig.Signer.PrivateKeyRef)
		if err != nil {
			return nil, errors.Wrap(err, "attestation key")
		}
		return attestation.NewLocalSigner(key)
	}
	return nil, errors.Errorf("unknown SIGNER_DRIVER %q", appConfig.Signer.Driver)
}

func buildExecutor(ctx context.Context, appConfig *config.AppConfig, keyStore custody.IKeyStore, logger *logger.Logger) (*sui.Executor, error) {
	encoded, err := secret(ctx, keyStore, appConfig.Sui.ExecutorKey, appConfig.Sui.ExecutorKeyRef)
	if err != nil {
		return nil, errors.Wrap(err, "sui executor key")
	}
	key, err := sui.DecodePrivateKey(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "sui executor key")
	}
	return sui.NewExecutor(sui.NewClient(appConfig.Sui.RPCEndpoint, logger), key), nil
}
