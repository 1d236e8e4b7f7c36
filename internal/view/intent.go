package view

import (
	"time"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// QuoteResponse is returned once an intent is created. Amounts are in base units.
type QuoteResponse struct {
	IntentID           string `json:"intentId"`
	InputTokenID       string `json:"inputTokenId"`
	InputTokenName     string `json:"inputTokenName"`
	InputTokenAddress  string `json:"inputTokenAddress"`
	InputAmount        string `json:"inputAmount"`
	OutputTokenID      string `json:"outputTokenId"`
	OutputTokenName    string `json:"outputTokenName"`
	OutputTokenAddress string `json:"outputTokenAddress"`
	OutputAmount       string `json:"outputAmount"`
	MinOutputAmount    string `json:"minOutputAmount"`
	DepositAddress     string `json:"depositAddress"`
}

func ToQuoteResponse(intent *model.Intent, input, output model.SupportedToken) QuoteResponse {
	return QuoteResponse{
		IntentID:           intent.IntentID,
		InputTokenID:       intent.InputTokenID,
		InputTokenName:     input.Name,
		InputTokenAddress:  intent.InputTokenAddress,
		InputAmount:        intent.InputAmount.String(),
		OutputTokenID:      intent.OutputTokenID,
		OutputTokenName:    output.Name,
		OutputTokenAddress: intent.OutputTokenAddress,
		OutputAmount:       intent.OutputAmount.String(),
		MinOutputAmount:    intent.MinOutputAmount.String(),
		DepositAddress:     intent.DepositAddress,
	}
}

type IntentResponse struct {
	IntentID        string             `json:"intentId"`
	Status          model.IntentStatus `json:"status"`
	InputTokenID    string             `json:"inputTokenId"`
	InputChainID    string             `json:"inputChainId"`
	InputAmount     string             `json:"inputAmount"`
	OutputTokenID   string             `json:"outputTokenId"`
	OutputChainID   string             `json:"outputChainId"`
	OutputAmount    string             `json:"outputAmount"`
	MinOutputAmount string             `json:"minOutputAmount"`
	ReceiverAddress string             `json:"receiverAddress"`
	DepositAddress  string             `json:"depositAddress"`
	MintTxDigest    string             `json:"mintTxDigest,omitempty"`
	FailureKind     string             `json:"failureKind,omitempty"`
	FailureReason   string             `json:"failureReason,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func ToIntentResponse(intent *model.Intent) *IntentResponse {
	if intent == nil {
		return nil
	}
	return &IntentResponse{
		IntentID:        intent.IntentID,
		Status:          intent.Status,
		InputTokenID:    intent.InputTokenID,
		InputChainID:    intent.InputChainID,
		InputAmount:     intent.InputAmount.String(),
		OutputTokenID:   intent.OutputTokenID,
		OutputChainID:   intent.OutputChainID,
		OutputAmount:    intent.OutputAmount.String(),
		MinOutputAmount: intent.MinOutputAmount.String(),
		ReceiverAddress: intent.ReceiverAddress,
		DepositAddress:  intent.DepositAddress,
		MintTxDigest:    intent.MintTxDigest,
		FailureKind:     intent.FailureKind,
		FailureReason:   intent.FailureReason,
		CreatedAt:       intent.CreatedAt,
		UpdatedAt:       intent.UpdatedAt,
	}
}
