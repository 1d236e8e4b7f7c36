package intent

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dwarvesf/bridge-relayer/internal/consts"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// MemoryStore keeps intents in process memory with the same uniqueness rules
// as the intents table.
type MemoryStore struct {
	mu       sync.Mutex
	intents  map[string]*model.Intent
	deposits map[string]string
	nonces   map[string]string
	now      func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		intents:  make(map[string]*model.Intent),
		deposits: make(map[string]string),
		nonces:   make(map[string]string),
		now:      time.Now,
	}
}

func depositKey(i *model.Intent) string {
	return i.InputChainID + "|" + i.DepositAddress
}

func (s *MemoryStore) Create(_ context.Context, intent *model.Intent) error {
	if err := intent.Validate(); err != nil {
		return errs.Wrap(errs.KindValidation, "Create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.intents[intent.IntentID]; ok {
		return errs.WithIntent(errs.New(errs.KindConflict, "Create", "intent already exists"), intent.IntentID)
	}
	if _, ok := s.deposits[depositKey(intent)]; ok {
		return errs.WithIntent(errs.New(errs.KindConflict, "Create", "deposit address already bound"), intent.IntentID)
	}
	if _, ok := s.nonces[intent.DepositNonce]; ok {
		return errs.WithIntent(errs.New(errs.KindConflict, "Create", "deposit nonce already used"), intent.IntentID)
	}

	now := s.now().UTC()
	intent.Status = model.IntentStatusCreated
	intent.CreatedAt = now
	intent.UpdatedAt = now

	s.intents[intent.IntentID] = intent.Clone()
	s.deposits[depositKey(intent)] = intent.IntentID
	s.nonces[intent.DepositNonce] = intent.IntentID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, intentID string) (*model.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.intents[intentID]
	if !ok {
		return nil, errs.WithIntent(errs.New(errs.KindIntentNotFound, "Get", "intent not found"), intentID)
	}
	return row.Clone(), nil
}

func (s *MemoryStore) Transition(_ context.Context, intentID string, expected, next model.IntentStatus, mutate func(*model.Intent)) (*model.Intent, error) {
	if err := checkEdge("Transition", expected, next); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.intents[intentID]
	if !ok {
		return nil, errs.WithIntent(errs.New(errs.KindIntentNotFound, "Transition", "intent not found"), intentID)
	}
	if row.Status != expected {
		return nil, errs.WithIntent(errs.Newf(errs.KindConflict, "Transition", "status is %s, expected %s", row.Status, expected), intentID)
	}

	draft := row.Clone()
	if mutate != nil {
		mutate(draft)
	}
	updated := row.Clone()
	applyMutable(updated, draft, next, s.now().UTC())
	s.intents[intentID] = updated

	return updated.Clone(), nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, statuses []model.IntentStatus, limit int) ([]*model.Intent, error) {
	if limit <= 0 {
		limit = consts.DefaultListLimit
	}
	want := make(map[model.IntentStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Intent
	for _, row := range s.intents {
		if want[row.Status] {
			out = append(out, row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].IntentID < out[j].IntentID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
