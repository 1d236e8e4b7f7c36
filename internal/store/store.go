package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/dwarvesf/bridge-relayer/internal/store/intent"
	"github.com/dwarvesf/bridge-relayer/internal/store/mintledger"
)

type Store struct {
	Intent     intent.IStore
	MintLedger mintledger.IStore
}

func New(db *gorm.DB, pool *pgxpool.Pool) *Store {
	return &Store{
		Intent:     intent.New(db, DoInTx),
		MintLedger: mintledger.New(pool),
	}
}

// NewMemory backs every store with process memory, for tests and local runs.
func NewMemory() *Store {
	return &Store{
		Intent:     intent.NewMemory(),
		MintLedger: mintledger.NewMemory(),
	}
}
