package mintledger

import (
	"context"
	"sync"
	"time"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
)

type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]*model.MintSubmission
}

func NewMemory() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*model.MintSubmission)}
}

func key(intentID, depositNonce string) string {
	return intentID + "|" + depositNonce
}

func (s *MemoryStore) Begin(_ context.Context, intentID, depositNonce string) (*model.MintSubmission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.rows[key(intentID, depositNonce)]; ok {
		return clone(row), false, nil
	}

	now := time.Now().UTC()
	row := &model.MintSubmission{
		IntentID:     intentID,
		DepositNonce: depositNonce,
		Status:       model.MintSubmissionPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.rows[key(intentID, depositNonce)] = row
	return clone(row), true, nil
}

func (s *MemoryStore) Get(_ context.Context, intentID, depositNonce string) (*model.MintSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key(intentID, depositNonce)]
	if !ok {
		return nil, nil
	}
	return clone(row), nil
}

func (s *MemoryStore) RecordDigest(_ context.Context, intentID, depositNonce, digest string, txBytes []byte) error {
	return s.update("RecordDigest", intentID, depositNonce, func(row *model.MintSubmission) bool {
		if row.Status != model.MintSubmissionPending {
			return false
		}
		if row.TxDigest != "" && row.TxDigest != digest {
			row.SupersededDigests = append(row.SupersededDigests, row.TxDigest)
		}
		row.TxDigest = digest
		row.TxBytes = append([]byte(nil), txBytes...)
		return true
	})
}

func (s *MemoryStore) MarkSucceeded(_ context.Context, intentID, depositNonce, digest string) error {
	return s.update("MarkSucceeded", intentID, depositNonce, func(row *model.MintSubmission) bool {
		if row.Status == model.MintSubmissionRejected {
			return false
		}
		row.Status = model.MintSubmissionSucceeded
		row.TxDigest = digest
		return true
	})
}

func (s *MemoryStore) MarkRejected(_ context.Context, intentID, depositNonce, reason string) error {
	return s.update("MarkRejected", intentID, depositNonce, func(row *model.MintSubmission) bool {
		if row.Status != model.MintSubmissionPending {
			return false
		}
		row.Status = model.MintSubmissionRejected
		row.Error = reason
		return true
	})
}

func (s *MemoryStore) update(op, intentID, depositNonce string, fn func(*model.MintSubmission) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key(intentID, depositNonce)]
	if !ok || !fn(row) {
		return errs.WithIntent(errs.New(errs.KindConflict, op, "submission is not in a state that allows this update"), intentID)
	}
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func clone(row *model.MintSubmission) *model.MintSubmission {
	cp := *row
	cp.TxBytes = append([]byte(nil), row.TxBytes...)
	cp.SupersededDigests = append([]string(nil), row.SupersededDigests...)
	return &cp
}
