package intent

import (
	"time"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
)

func checkEdge(op string, expected, next model.IntentStatus) error {
	if !expected.CanTransition(next) {
		return errs.Newf(errs.KindValidation, op, "illegal transition %s -> %s", expected, next)
	}
	return nil
}

// applyMutable copies only the fields a transition may change onto dst.
func applyMutable(dst, src *model.Intent, next model.IntentStatus, now time.Time) {
	dst.Status = next
	dst.AttestationSignature = src.AttestationSignature
	dst.MintTxDigest = src.MintTxDigest
	dst.FailureKind = src.FailureKind
	dst.FailureReason = src.FailureReason
	dst.UpdatedAt = now
}

func mutableColumns(i *model.Intent) map[string]interface{} {
	return map[string]interface{}{
		"status":                i.Status,
		"attestation_signature": i.AttestationSignature,
		"mint_tx_digest":        i.MintTxDigest,
		"failure_kind":          i.FailureKind,
		"failure_reason":        i.FailureReason,
		"updated_at":            i.UpdatedAt,
	}
}
