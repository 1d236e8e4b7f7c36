package intent

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/bridge-relayer/internal/consts"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
)

const pgUniqueViolation = "23505"

// TxFunc runs fn inside a database transaction.
type TxFunc func(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error

type Store struct {
	db   *gorm.DB
	inTx TxFunc
	now  func() time.Time
}

func New(db *gorm.DB, inTx TxFunc) IStore {
	return &Store{db: db, inTx: inTx, now: time.Now}
}

func (s *Store) Create(ctx context.Context, intent *model.Intent) error {
	if err := intent.Validate(); err != nil {
		return errs.Wrap(errs.KindValidation, "Create", err)
	}

	now := s.now().UTC()
	row := intent.Clone()
	row.Status = model.IntentStatusCreated
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return errs.Wrap(errs.KindConflict, "Create", err)
		}
		return errs.Wrap(errs.KindInternal, "Create", err)
	}

	intent.Status = row.Status
	intent.CreatedAt = row.CreatedAt
	intent.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) Get(ctx context.Context, intentID string) (*model.Intent, error) {
	var row model.Intent
	err := s.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&row).Error
	if err != nil {
		return nil, notFoundOr("Get", intentID, err)
	}
	return &row, nil
}

func (s *Store) Transition(ctx context.Context, intentID string, expected, next model.IntentStatus, mutate func(*model.Intent)) (*model.Intent, error) {
	if err := checkEdge("Transition", expected, next); err != nil {
		return nil, err
	}

	var updated model.Intent
	err := s.inTx(ctx, s.db, func(tx *gorm.DB) error {
		var row model.Intent
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("intent_id = ?", intentID).
			First(&row).Error
		if err != nil {
			return notFoundOr("Transition", intentID, err)
		}
		if row.Status != expected {
			return errs.WithIntent(errs.Newf(errs.KindConflict, "Transition", "status is %s, expected %s", row.Status, expected), intentID)
		}

		draft := row.Clone()
		if mutate != nil {
			mutate(draft)
		}
		applyMutable(&row, draft, next, s.now().UTC())

		res := tx.Model(&model.Intent{}).
			Where("intent_id = ? AND status = ?", intentID, expected).
			Updates(mutableColumns(&row))
		if res.Error != nil {
			return errs.Wrap(errs.KindInternal, "Transition", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.WithIntent(errs.New(errs.KindConflict, "Transition", "status changed concurrently"), intentID)
		}

		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) ListByStatus(ctx context.Context, statuses []model.IntentStatus, limit int) ([]*model.Intent, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = consts.DefaultListLimit
	}

	var rows []*model.Intent
	err := s.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "ListByStatus", err)
	}
	return rows, nil
}

func notFoundOr(op, intentID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.WithIntent(errs.New(errs.KindIntentNotFound, op, "intent not found"), intentID)
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.WithIntent(errs.Wrap(errs.KindInternal, op, err), intentID)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
