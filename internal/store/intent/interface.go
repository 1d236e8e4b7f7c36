package intent

import (
	"context"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// IStore persists intents. Transition is the only way status moves, it applies
// mutate and the new status only if the stored status still equals expected.
type IStore interface {
	Create(ctx context.Context, intent *model.Intent) error
	Get(ctx context.Context, intentID string) (*model.Intent, error)
	Transition(ctx context.Context, intentID string, expected, next model.IntentStatus, mutate func(*model.Intent)) (*model.Intent, error)
	ListByStatus(ctx context.Context, statuses []model.IntentStatus, limit int) ([]*model.Intent, error)
}
