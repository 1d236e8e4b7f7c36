package model

import "time"

type MintSubmissionStatus string

const (
	MintSubmissionPending   MintSubmissionStatus = "pending"
	MintSubmissionSucceeded MintSubmissionStatus = "succeeded"
	MintSubmissionRejected  MintSubmissionStatus = "rejected"
)

// MintSubmission records the single mint attempt allowed per (intent, deposit nonce).
type MintSubmission struct {
	IntentID     string               `json:"intentId"`
	DepositNonce string               `json:"depositNonce"`
	Status       MintSubmissionStatus `json:"status"`
	// TxDigest is known before execution, a pending row with a digest may already be on chain.
	TxDigest string `json:"txDigest,omitempty"`
	// TxBytes are the exact bytes behind TxDigest, re-executing them is answered with the original effects.
	TxBytes []byte `json:"-"`
	// SupersededDigests were replaced by a rebuild after their inputs went stale.
	SupersededDigests []string  `json:"supersededDigests,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
