package controller

import (
	"context"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// CreateIntentRequest carries the quote parameters as the user sent them.
type CreateIntentRequest struct {
	InputCoinID  string
	OutputCoinID string
	// Amount is a human readable decimal in input token units, e.g. "1.5".
	Amount          string
	ReceiverAddress string
}

type IController interface {
	// CreateIntent quotes the request, issues a deposit address and persists the intent as created.
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*model.Intent, error)

	// AdvanceOnDeposit drives the intent as far as it can go. An unfunded deposit returns
	// the intent unchanged with errs.KindDepositNotConfirmed.
	AdvanceOnDeposit(ctx context.Context, intentID string) (*model.Intent, error)

	GetIntent(ctx context.Context, intentID string) (*model.Intent, error)

	// ReconcilePending advances every non-terminal intent, used by the reconciliation job
	ReconcilePending(ctx context.Context) error
}

// Observer receives intent lifecycle events, monitoring implements it.
type Observer interface {
	ObserveTransition(from, to model.IntentStatus)
	ObserveFailure(kind string)
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(model.IntentStatus, model.IntentStatus) {}
func (noopObserver) ObserveFailure(string)                                    {}
