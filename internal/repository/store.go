package repository

import (
	"context"
	"errors"
	"time"

	"posengine/internal/apierror"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Store groups every repository over one *gorm.DB handle.
// Services receive a Store and open transactions through it; inside
// Transaction all repositories share the same tx.
type Store struct {
	db        *gorm.DB
	inTx      bool
	txTimeout time.Duration

	Products  ProductRepository
	Families  StockFamilyRepository
	Movements MovementRepository
	Bundles   BundleRepository
	Customers CustomerRepository
	Shifts    ShiftRepository
	Sales     SaleRepository
	Users     UserRepository
}

func NewStore(db *gorm.DB) *Store {
	return newStore(db, false, 0)
}

func newStore(db *gorm.DB, inTx bool, timeout time.Duration) *Store {
	return &Store{
		db:        db,
		inTx:      inTx,
		txTimeout: timeout,
		Products:  NewProductRepository(db),
		Families:  NewStockFamilyRepository(db),
		Movements: NewMovementRepository(db),
		Bundles:   NewBundleRepository(db),
		Customers: NewCustomerRepository(db),
		Shifts:    NewShiftRepository(db),
		Sales:     NewSaleRepository(db),
		Users:     NewUserRepository(db),
	}
}

// WithTxTimeout returns a copy of the store whose transactions are cancelled
// after d. Zero disables the timeout.
func (s *Store) WithTxTimeout(d time.Duration) *Store {
	return newStore(s.db, s.inTx, d)
}

// DB exposes the underlying handle (health checks, migrations).
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn inside one database transaction. Any error returned by
// fn rolls back every write made through tx. Calling Transaction on a store
// that is already transactional reuses the open tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, true, s.txTimeout))
	})
	return Classify(err)
}

// ── Error classification ─────────────────────────────────────────────────────

// Serialization failures, deadlocks and lock timeouts surface as conflicts.
var conflictSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

var conflictMySQLCodes = map[uint16]bool{
	1205: true, // lock wait timeout
	1213: true, // deadlock
}

// Classify maps a storage error onto the apierror taxonomy. Errors that are
// already classified pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apierror.Error{Kind: apierror.KindNotFound, Message: "record not found", Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apierror.Error{Kind: apierror.KindConflict, Message: "duplicate record", Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && conflictSQLStates[pgErr.Code] {
		return &apierror.Error{Kind: apierror.KindConflict, Message: "concurrent update, retry", Err: err}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && conflictMySQLCodes[myErr.Number] {
		return &apierror.Error{Kind: apierror.KindConflict, Message: "concurrent update, retry", Err: err}
	}
	return apierror.Storage("storage failure", err)
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Range bounds time-ordered listings. Nil bounds are open.
type Range struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

func (rg Range) apply(q *gorm.DB, column string) *gorm.DB {
	if rg.From != nil {
		q = q.Where(column+" >= ?", rg.From.UTC())
	}
	if rg.To != nil {
		q = q.Where(column+" <= ?", rg.To.UTC())
	}
	if rg.Limit > 0 {
		q = q.Limit(rg.Limit)
	}
	return q
}
