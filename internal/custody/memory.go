package custody

import (
	"context"
	"sync"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
)

type memoryStore struct {
	mux     sync.RWMutex
	secrets map[string]string
}

// NewMemory keeps keys in process memory. Keys are lost on restart, development only.
func NewMemory() IKeyStore {
	return &memoryStore{secrets: make(map[string]string)}
}

func (m *memoryStore) Put(_ context.Context, ref, secret string) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if _, ok := m.secrets[ref]; ok {
		return errs.Newf(errs.KindConflict, "Put", "key %s already in custody", ref)
	}
	m.secrets[ref] = secret
	return nil
}

func (m *memoryStore) Get(_ context.Context, ref string) (string, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	s, ok := m.secrets[ref]
	if !ok {
		return "", errs.Newf(errs.KindInternal, "Get", "no key in custody for %s", ref)
	}
	return s, nil
}
