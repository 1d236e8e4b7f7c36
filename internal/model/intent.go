package model

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type IntentStatus string

const (
	IntentStatusCreated          IntentStatus = "created"
	IntentStatusDepositConfirmed IntentStatus = "deposit_confirmed"
	IntentStatusAttested         IntentStatus = "attested"
	IntentStatusMinted           IntentStatus = "minted"
	IntentStatusFailed           IntentStatus = "failed"
)

// NonTerminalIntentStatuses are the states reconciliation keeps driving.
var NonTerminalIntentStatuses = []IntentStatus{
	IntentStatusCreated,
	IntentStatusDepositConfirmed,
	IntentStatusAttested,
}

func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusMinted || s == IntentStatusFailed
}

// CanTransition lists the edges of the intent state machine.
func (s IntentStatus) CanTransition(next IntentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == IntentStatusFailed {
		return true
	}

	switch s {
	case IntentStatusCreated:
		return next == IntentStatusDepositConfirmed
	case IntentStatusDepositConfirmed:
		return next == IntentStatusAttested
	case IntentStatusAttested:
		return next == IntentStatusMinted
	}
	return false
}

type Intent struct {
	IntentID string `gorm:"column:intent_id;primaryKey;type:varchar(66)" json:"intentId"`

	InputTokenID      string `gorm:"column:input_token_id;type:varchar(64);not null" json:"inputTokenId"`
	InputTokenAddress string `gorm:"column:input_token_address;type:varchar(255);not null" json:"inputTokenAddress"`
	InputChainID      string `gorm:"column:input_chain_id;type:varchar(64);not null;uniqueIndex:idx_intents_chain_deposit_address" json:"inputChainId"`
	InputAmount       Amount `gorm:"column:input_amount;type:numeric(78,0);not null" json:"inputAmount"`

	OutputTokenID      string `gorm:"column:output_token_id;type:varchar(64);not null" json:"outputTokenId"`
	OutputTokenAddress string `gorm:"column:output_token_address;type:varchar(255);not null" json:"outputTokenAddress"`
	OutputChainID      string `gorm:"column:output_chain_id;type:varchar(64);not null" json:"outputChainId"`
	OutputAmount       Amount `gorm:"column:output_amount;type:numeric(78,0);not null" json:"outputAmount"`
	MinOutputAmount    Amount `gorm:"column:min_output_amount;type:numeric(78,0);not null" json:"minOutputAmount"`

	ReceiverAddress string `gorm:"column:receiver_address;type:varchar(255);not null" json:"receiverAddress"`
	DepositAddress  string `gorm:"column:deposit_address;type:varchar(255);not null;uniqueIndex:idx_intents_chain_deposit_address" json:"depositAddress"`
	DepositKeyRef   string `gorm:"column:deposit_key_ref;type:varchar(255);not null" json:"-"`
	DepositNonce    string `gorm:"column:deposit_nonce;type:varchar(130);not null;uniqueIndex" json:"depositNonce"`

	Status               IntentStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	AttestationSignature string       `gorm:"column:attestation_signature;type:text" json:"attestationSignature,omitempty"`
	MintTxDigest         string       `gorm:"column:mint_tx_digest;type:varchar(255)" json:"mintTxDigest,omitempty"`
	FailureKind          string       `gorm:"column:failure_kind;type:varchar(64)" json:"failureKind,omitempty"`
	FailureReason        string       `gorm:"column:failure_reason;type:text" json:"failureReason,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Intent) TableName() string {
	return "intents"
}

// Clone returns a deep copy, amounts included.
func (i *Intent) Clone() *Intent {
	cp := *i
	cp.InputAmount = NewAmount(i.InputAmount.Big())
	cp.OutputAmount = NewAmount(i.OutputAmount.Big())
	cp.MinOutputAmount = NewAmount(i.MinOutputAmount.Big())
	return &cp
}

func (i *Intent) DepositNonceBytes() ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(i.DepositNonce, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "deposit nonce is not hex")
	}
	return b, nil
}

// Validate checks the amount invariants every stored intent satisfies.
func (i *Intent) Validate() error {
	if i.IntentID == "" {
		return errors.New("intent id is required")
	}
	if i.DepositAddress == "" || i.DepositKeyRef == "" {
		return errors.New("deposit address and key reference are required")
	}
	if i.MinOutputAmount.Cmp(i.OutputAmount) > 0 {
		return errors.New("min output amount exceeds output amount")
	}
	return nil
}
