package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Beginner opens units of work.
type Beginner interface {
	Begin(ctx context.Context) (*Writer, error)
}

type Storage struct {
	DB           *sql.DB
	Accounts     sqlconfig.IAccountTable
	Transactions sqlconfig.ITransactionTable
	Beginner     Beginner
}

// New builds the backend selected by STORAGE_DRIVER.
func New(env *config.Config) (*Storage, error) {
	switch env.StorageDriver {
	case DriverMemory:
		return NewMemoryStorage(), nil
	case DriverPostgres, "":
		return NewStorage(env)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", env.StorageDriver)
	}
}

func NewStorage(env *config.Config) (*Storage, error) {
	connStr := "postgres://" + env.PostgresUsername + ":" +
		env.PostgresPassword + "@" + net.JoinHostPort(env.PostgresAddress, env.PostgresPort) +
		"/" + env.PostgresDB + "?sslmode=disable"

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}

	return NewStorageFromDB(db), nil
}

// NewStorageFromDB wraps an already opened Postgres handle.
func NewStorageFromDB(db *sql.DB) *Storage {
	bobDB := bob.NewDB(db)
	return &Storage{
		DB:           db,
		Accounts:     sqlconfig.NewAccountsTable(bobDB),
		Transactions: sqlconfig.NewTransactionsTable(bobDB),
		Beginner:     postgresBeginner{db: bobDB},
	}
}

func NewMemoryStorage() *Storage {
	store := memory.NewStore()
	return &Storage{
		Accounts:     store.Accounts(),
		Transactions: store.Transactions(),
		Beginner:     memoryBeginner{store: store},
	}
}

// Write opens a unit of work.
func (s *Storage) Write(ctx context.Context) (*Writer, error) {
	return s.Beginner.Begin(ctx)
}

func (s *Storage) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return sqlconfig.TranslateError(s.DB.PingContext(ctx))
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

type postgresBeginner struct {
	db bob.DB
}

func (b postgresBeginner) Begin(ctx context.Context) (*Writer, error) {
	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, sqlconfig.TranslateError(err)
	}
	return NewWriter(tx, sqlconfig.NewAccountsTable(tx), sqlconfig.NewTransactionsTable(tx)), nil
}

type memoryBeginner struct {
	store *memory.Store
}

func (b memoryBeginner) Begin(ctx context.Context) (*Writer, error) {
	unit, err := b.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return NewWriter(unit, unit.Accounts(), unit.Transactions()), nil
}
