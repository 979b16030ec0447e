package store

import (
	"context"      // Request-scoped cancellation
	"database/sql" // Nullable scan targets for the export join
	"errors"       // Error inspection

	"transacciones_api/internal/domain" // Domain models
	"transacciones_api/internal/policy" // Admission rules

	"github.com/go-sql-driver/mysql"    // MySQL error codes
	"github.com/shopspring/decimal"     // Exact decimal type for money
	"gorm.io/gorm"                      // GORM ORM library
	"gorm.io/gorm/clause"               // Row locking clause
)

// unknownOwner is printed in the export when the owner row is gone
const unknownOwner = "Unknown"

// Transactions is the GORM-backed TransactionStore
type Transactions struct {
	db *gorm.DB // Shared database handle
}

// NewTransactions wraps a database handle into a TransactionStore
func NewTransactions(db *gorm.DB) *Transactions {
	return &Transactions{db: db}
}

// List returns all transactions with their owner embedded
func (s *Transactions) List(ctx context.Context) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := s.db.WithContext(ctx).Preload("User").Order("id").Find(&txs).Error; err != nil {
		return nil, err // Query failed
	}
	return txs, nil
}

// Get returns one transaction by id with its owner embedded
func (s *Transactions) Get(ctx context.Context, id uint) (domain.Transaction, error) {
	var t domain.Transaction
	if err := s.db.WithContext(ctx).Preload("User").First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transaction{}, ErrNotFound // Unknown id
		}
		return domain.Transaction{}, err // Query failed
	}
	return t, nil
}

// Create admits and inserts a candidate transaction atomically.
// The owner row is locked FOR UPDATE for the duration of the database transaction,
// serializing concurrent admission checks for the same owner; the composite unique
// index on (user_id, monto, fecha) backstops the duplicate probe.
func (s *Transactions) Create(ctx context.Context, t *domain.Transaction) error {
	if t.UserID == nil {
		return ErrOwnerMissing // A candidate must name its owner
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the owner row; this doubles as the owner-exists check
		var owner domain.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&owner, *t.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOwnerMissing // Candidate references an unknown user
			}
			return err // Lock query failed
		}
		// Sum the owner's existing transactions on the candidate's calendar day
		start, end := policy.DayWindow(t.Fecha)
		var agg struct {
			Total decimal.Decimal // COALESCE keeps an empty day at zero
		}
		if err := tx.Model(&domain.Transaction{}).
			Where("user_id = ? AND fecha BETWEEN ? AND ?", owner.ID, start, end).
			Select("COALESCE(SUM(monto), 0) AS total").
			Scan(&agg).Error; err != nil {
			return err // Sum query failed
		}
		// Probe for an identical (owner, amount, timestamp) row
		var dupes int64
		if err := tx.Model(&domain.Transaction{}).
			Where("user_id = ? AND monto = ? AND fecha = ?", owner.ID, t.Monto, t.Fecha).
			Count(&dupes).Error; err != nil {
			return err // Duplicate probe failed
		}
		// Apply the admission rules
		if err := policy.Evaluate(agg.Total, t.Monto, dupes > 0); err != nil {
			return err // Rejected, rolls back the lock
		}
		// Insert the admitted transaction
		if err := tx.Create(t).Error; err != nil {
			if isDuplicateKey(err) {
				return policy.ErrDuplicateTransaction // Dedupe index caught a race
			}
			return err // Insert failed
		}
		return nil // Commit
	})
}

// Delete removes a transaction with no side effects on aggregates
func (s *Transactions) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Transaction{}, id)
	if res.Error != nil {
		return res.Error // Delete failed
	}
	if res.RowsAffected == 0 {
		return ErrNotFound // Unknown id
	}
	return nil
}

// SummaryByUser aggregates total and average amounts per user, for users with at
// least one transaction. The optional date filter narrows on fecha.
func (s *Transactions) SummaryByUser(ctx context.Context, f DateFilter) ([]domain.UserSummary, error) {
	q := s.db.WithContext(ctx).Table("transacciones").
		Select("users.id AS id, users.name AS usuario, users.email AS email, SUM(transacciones.monto) AS total_transferido, AVG(transacciones.monto) AS promedio_monto").
		Joins("JOIN users ON users.id = transacciones.user_id").
		Group("users.id, users.name, users.email").
		Order("users.id")
	if f.From != nil {
		q = q.Where("transacciones.fecha >= ?", *f.From) // Filter by start date
	}
	if f.To != nil {
		q = q.Where("transacciones.fecha <= ?", *f.To) // Filter by end date
	}
	var rows []domain.UserSummary
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err // Query failed
	}
	return rows, nil
}

// ForEachExportRow streams the export join row by row, so the CSV writer never
// buffers the whole result set. Ownerless rows resolve to "Unknown".
func (s *Transactions) ForEachExportRow(ctx context.Context, f DateFilter, fn func(domain.ExportRow) error) error {
	q := s.db.WithContext(ctx).Table("transacciones").
		Select("transacciones.id, users.name, users.email, transacciones.monto, transacciones.fecha, transacciones.created_at, transacciones.updated_at").
		Joins("LEFT JOIN users ON users.id = transacciones.user_id").
		Order("transacciones.id")
	if f.From != nil {
		q = q.Where("transacciones.fecha >= ?", *f.From) // Filter by start date
	}
	if f.To != nil {
		q = q.Where("transacciones.fecha <= ?", *f.To) // Filter by end date
	}
	rows, err := q.Rows() // Stream instead of loading everything
	if err != nil {
		return err // Query failed
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r     domain.ExportRow
			name  sql.NullString // NULL once the owner is deleted
			email sql.NullString // NULL once the owner is deleted
		)
		if err := rows.Scan(&r.ID, &name, &email, &r.Monto, &r.Fecha, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return err // Scan failed
		}
		r.Usuario = unknownOwner
		if name.Valid {
			r.Usuario = name.String // Owner still present
		}
		r.Email = unknownOwner
		if email.Valid {
			r.Email = email.String // Owner still present
		}
		if err := fn(r); err != nil {
			return err // Callback aborted the stream
		}
	}
	return rows.Err()
}

// isDuplicateKey reports whether the error is a unique index violation
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true // GORM already translated it
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 // ER_DUP_ENTRY
}
