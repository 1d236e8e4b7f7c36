package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies relay failures. Callers branch on the kind, never on messages.
type Kind string

const (
	KindUnsupportedToken     Kind = "unsupported_token"
	KindUnsupportedChainType Kind = "unsupported_chain_type"
	KindIntentNotFound       Kind = "intent_not_found"
	KindConflict             Kind = "conflict"
	KindAdapterUnavailable   Kind = "adapter_unavailable"
	KindDepositNotConfirmed  Kind = "deposit_not_confirmed"
	KindSignatureEncoding    Kind = "signature_encoding_error"
	KindMintRejected         Kind = "mint_rejected"
	KindSubmissionFailure    Kind = "submission_failure"
	KindValidation           Kind = "validation"
	KindInternal             Kind = "internal"
)

// Error carries the kind and the intent it happened on, the cause keeps its stack.
type Error struct {
	Kind     Kind
	IntentID string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.IntentID != "" {
		msg = fmt.Sprintf("%s (intent %s)", msg, e.IntentID)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}

func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

func Newf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Wrap classifies err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// WithIntent attaches an intent id to a classified error, unclassified errors become internal.
func WithIntent(err error, intentID string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.IntentID = intentID
		return &cp
	}
	return &Error{Kind: KindInternal, IntentID: intentID, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether the operation may be re-invoked without touching intent state.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindAdapterUnavailable, KindSubmissionFailure, KindDepositNotConfirmed:
		return true
	}
	return false
}

// IsFatal reports whether the intent must move to failed.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindSignatureEncoding, KindMintRejected, KindUnsupportedToken, KindUnsupportedChainType:
		return true
	}
	return false
}
