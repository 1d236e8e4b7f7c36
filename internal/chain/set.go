package chain

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
)

// Set maps chain ids to their adapters.
type Set struct {
	mux      sync.RWMutex
	adapters map[string]IAdapter
}

func NewSet() *Set {
	return &Set{adapters: make(map[string]IAdapter)}
}

func (s *Set) Register(chainID string, adapter IAdapter) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.adapters[chainID]; ok {
		return errors.Errorf("adapter for chain %s already registered", chainID)
	}
	s.adapters[chainID] = adapter
	return nil
}

func (s *Set) Get(chainID string) (IAdapter, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	a, ok := s.adapters[chainID]
	if !ok {
		return nil, errs.Newf(errs.KindUnsupportedChainType, "Get", "no adapter for chain %s", chainID)
	}
	return a, nil
}

// ChainIDs lists registered chains, used by health checks.
func (s *Set) ChainIDs() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()

	ids := make([]string, 0, len(s.adapters))
	for id := range s.adapters {
		ids = append(ids, id)
	}
	return ids
}
