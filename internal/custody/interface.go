package custody

import "context"

// IKeyStore keeps deposit private keys out of the intent store. Refs are opaque to callers.
type IKeyStore interface {
	// Put stores secret under ref. An existing ref is never overwritten.
	Put(ctx context.Context, ref, secret string) error
	Get(ctx context.Context, ref string) (string, error)
}

// DepositKeyRef is the custody reference of an intent's deposit key.
func DepositKeyRef(intentID string) string {
	return "deposit/" + intentID
}
