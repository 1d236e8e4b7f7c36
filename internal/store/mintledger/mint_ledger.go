package mintledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// DB is the subset of *pgxpool.Pool the ledger uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	insertPending = `
INSERT INTO mint_submissions (intent_id, deposit_nonce, status, created_at, updated_at)
VALUES ($1, $2, 'pending', now(), now())
ON CONFLICT (intent_id, deposit_nonce) DO NOTHING
RETURNING intent_id, deposit_nonce, status, COALESCE(tx_digest, ''), tx_bytes, superseded_digests, COALESCE(error, ''), created_at, updated_at`

	selectOne = `
SELECT intent_id, deposit_nonce, status, COALESCE(tx_digest, ''), tx_bytes, superseded_digests, COALESCE(error, ''), created_at, updated_at
FROM mint_submissions
WHERE intent_id = $1 AND deposit_nonce = $2`

	updateDigest = `
UPDATE mint_submissions SET
    superseded_digests = CASE
        WHEN tx_digest IS NULL OR tx_digest = '' OR tx_digest = $3 THEN superseded_digests
        ELSE array_append(superseded_digests, tx_digest)
    END,
    tx_digest = $3,
    tx_bytes = $4,
    updated_at = now()
WHERE intent_id = $1 AND deposit_nonce = $2 AND status = 'pending'`

	updateSucceeded = `
UPDATE mint_submissions SET status = 'succeeded', tx_digest = $3, updated_at = now()
WHERE intent_id = $1 AND deposit_nonce = $2 AND status <> 'rejected'`

	updateRejected = `
UPDATE mint_submissions SET status = 'rejected', error = $3, updated_at = now()
WHERE intent_id = $1 AND deposit_nonce = $2 AND status = 'pending'`
)

type Store struct {
	db DB
}

func New(db DB) IStore {
	return &Store{db: db}
}

func scan(row pgx.Row) (*model.MintSubmission, error) {
	var sub model.MintSubmission
	var status string
	err := row.Scan(
		&sub.IntentID, &sub.DepositNonce, &status, &sub.TxDigest, &sub.TxBytes,
		&sub.SupersededDigests, &sub.Error, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Status = model.MintSubmissionStatus(status)
	return &sub, nil
}

func (s *Store) Begin(ctx context.Context, intentID, depositNonce string) (*model.MintSubmission, bool, error) {
	sub, err := scan(s.db.QueryRow(ctx, insertPending, intentID, depositNonce))
	if err == nil {
		return sub, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, errs.WithIntent(errs.Wrap(errs.KindInternal, "Begin", err), intentID)
	}

	sub, err = s.Get(ctx, intentID, depositNonce)
	if err != nil {
		return nil, false, err
	}
	return sub, false, nil
}

func (s *Store) Get(ctx context.Context, intentID, depositNonce string) (*model.MintSubmission, error) {
	sub, err := scan(s.db.QueryRow(ctx, selectOne, intentID, depositNonce))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WithIntent(errs.Wrap(errs.KindInternal, "Get", err), intentID)
	}
	return sub, nil
}

func (s *Store) RecordDigest(ctx context.Context, intentID, depositNonce, digest string, txBytes []byte) error {
	return s.exec(ctx, "RecordDigest", updateDigest, intentID, depositNonce, digest, txBytes)
}

func (s *Store) MarkSucceeded(ctx context.Context, intentID, depositNonce, digest string) error {
	return s.exec(ctx, "MarkSucceeded", updateSucceeded, intentID, depositNonce, digest)
}

func (s *Store) MarkRejected(ctx context.Context, intentID, depositNonce, reason string) error {
	return s.exec(ctx, "MarkRejected", updateRejected, intentID, depositNonce, reason)
}

func (s *Store) exec(ctx context.Context, op, sql, intentID, depositNonce string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, append([]any{intentID, depositNonce}, args...)...)
	if err != nil {
		return errs.WithIntent(errs.Wrap(errs.KindInternal, op, err), intentID)
	}
	if tag.RowsAffected() == 0 {
		return errs.WithIntent(errs.New(errs.KindConflict, op, "submission is not in a state that allows this update"), intentID)
	}
	return nil
}
