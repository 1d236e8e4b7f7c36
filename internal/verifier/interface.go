package verifier

import (
	"context"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

type IVerifier interface {
	// Verify reports whether the deposit address holds at least the intent's input amount.
	Verify(ctx context.Context, intent *model.Intent) (bool, error)
}
