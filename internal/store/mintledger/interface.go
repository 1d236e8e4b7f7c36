package mintledger

import (
	"context"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// IStore guards against submitting two mints for the same (intent, deposit nonce).
// Begin inserts a pending row or returns the existing one, created reports which.
type IStore interface {
	Begin(ctx context.Context, intentID, depositNonce string) (sub *model.MintSubmission, created bool, err error)
	Get(ctx context.Context, intentID, depositNonce string) (*model.MintSubmission, error)
	// RecordDigest stores the transaction about to run. A different earlier digest moves to SupersededDigests.
	RecordDigest(ctx context.Context, intentID, depositNonce, digest string, txBytes []byte) error
	MarkSucceeded(ctx context.Context, intentID, depositNonce, digest string) error
	MarkRejected(ctx context.Context, intentID, depositNonce, reason string) error
}
