package store

import (
	"context" // Request-scoped cancellation
	"errors"  // Sentinel store errors
	"time"    // Report filters

	"transacciones_api/internal/domain" // Domain models
)

// Store-level errors mapped to HTTP statuses by the API layer
var (
	ErrNotFound     = errors.New("record not found")     // Unknown id
	ErrOwnerMissing = errors.New("owner does not exist") // Transaction references an unknown user
	ErrEmailTaken   = errors.New("email already in use") // Unique email violated
)

// DateFilter narrows report queries to transactions whose fecha falls in [From, To].
// Nil bounds are open ends.
type DateFilter struct {
	From *time.Time // Inclusive lower bound on fecha
	To   *time.Time // Inclusive upper bound on fecha
}

// UserStore persists user records
type UserStore interface {
	List(ctx context.Context) ([]domain.User, error)                              // All users
	Get(ctx context.Context, id uint) (domain.User, error)                        // One user by id
	FindByEmail(ctx context.Context, email string) (domain.User, error)           // One user by email, for login
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)   // Uniqueness probe, excludeID skips the record's own row on update
	Create(ctx context.Context, u *domain.User) error                             // Insert, fills ID and timestamps
	Update(ctx context.Context, u *domain.User) error                             // Full-row save of an already-merged record
	Delete(ctx context.Context, id uint) error                                    // Hard delete, owner FK on transactions is set NULL
}

// TransactionStore persists transaction records and serves the reports.
// Create applies the admission policy; it is the only write path into the ledger.
type TransactionStore interface {
	List(ctx context.Context) ([]domain.Transaction, error)                                         // All transactions, owner embedded
	Get(ctx context.Context, id uint) (domain.Transaction, error)                                   // One transaction by id, owner embedded
	Create(ctx context.Context, t *domain.Transaction) error                                        // Admission check + insert, atomically
	Delete(ctx context.Context, id uint) error                                                      // Hard delete, no side effects on aggregates
	SummaryByUser(ctx context.Context, f DateFilter) ([]domain.UserSummary, error)                  // Per-user sum and average
	ForEachExportRow(ctx context.Context, f DateFilter, fn func(domain.ExportRow) error) error      // Streamed export, one callback per row
}
