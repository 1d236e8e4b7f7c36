package custody

import (
	"context"
	"path"

	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/vault"
)

const privateKeyField = "private_key"

// KV is the part of the Vault client custody needs.
type KV interface {
	GetKV(ctx context.Context, path, field string) (string, error)
	PutKV(ctx context.Context, path string, data map[string]string, createOnly bool) error
}

type vaultStore struct {
	kv       KV
	basePath string
	logger   *logger.Logger
}

// NewVault stores each key as its own KV v2 secret under basePath.
func NewVault(kv KV, basePath string, logger *logger.Logger) IKeyStore {
	return &vaultStore{kv: kv, basePath: basePath, logger: logger}
}

func (v *vaultStore) Put(ctx context.Context, ref, secret string) error {
	err := v.kv.PutKV(ctx, path.Join(v.basePath, ref), map[string]string{privateKeyField: secret}, true)
	if errors.Is(err, vault.ErrExists) {
		return errs.Newf(errs.KindConflict, "Put", "key %s already in custody", ref)
	}
	if err != nil {
		v.logger.Error("[Custody][Put]", map[string]string{
			"ref":   ref,
			"error": err.Error(),
		})
		return errs.Wrap(errs.KindAdapterUnavailable, "Put", err)
	}
	return nil
}

func (v *vaultStore) Get(ctx context.Context, ref string) (string, error) {
	secret, err := v.kv.GetKV(ctx, path.Join(v.basePath, ref), privateKeyField)
	if errors.Is(err, vault.ErrNotFound) {
		return "", errs.Newf(errs.KindInternal, "Get", "no key in custody for %s", ref)
	}
	if err != nil {
		v.logger.Error("[Custody][Get]", map[string]string{
			"ref":   ref,
			"error": err.Error(),
		})
		return "", errs.Wrap(errs.KindAdapterUnavailable, "Get", err)
	}
	return secret, nil
}
