package attestation

import (
	"context"
	"encoding/hex"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/serial"
)

type Attestor struct {
	signer ISigner
	exec   *serial.Executor
	logger *logger.Logger
}

// New routes every signature through exec so the key has a single writer.
func New(signer ISigner, exec *serial.Executor, logger *logger.Logger) IAttestor {
	return &Attestor{signer: signer, exec: exec, logger: logger}
}

func (a *Attestor) Attest(ctx context.Context, att Attestation) ([]byte, []byte, error) {
	msg, err := Encode(att)
	if err != nil {
		a.logger.Error("[Attest][Encode]", map[string]string{
			"deposit_nonce": hex.EncodeToString(att.DepositNonce),
			"error":         err.Error(),
		})
		return nil, nil, err
	}

	sig, err := serial.Run(ctx, a.exec, func(ctx context.Context) ([]byte, error) {
		return a.signer.Sign(ctx, msg)
	})
	if err != nil {
		a.logger.Error("[Attest][Sign]", map[string]string{
			"deposit_nonce": hex.EncodeToString(att.DepositNonce),
			"error":         err.Error(),
		})
		return nil, nil, errs.Wrap(errs.KindAdapterUnavailable, "Attest", err)
	}
	return msg, sig, nil
}
