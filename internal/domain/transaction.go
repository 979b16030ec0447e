package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal type for money
)

// Transaction Model
//
// The composite unique index on (user_id, monto, fecha) backstops the duplicate
// check performed by the admission policy: even if two identical submissions race
// past the read, only one insert can succeed.
type Transaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                                          // Primary key
	UserID    *uint           `gorm:"uniqueIndex:idx_tx_dedupe" json:"user_id"`                      // Foreign key to the owner, NULL once the owner is deleted
	User      *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user"`    // Owner, embedded in list/show responses
	Monto     decimal.Decimal `gorm:"type:decimal(10,2);not null;uniqueIndex:idx_tx_dedupe" json:"monto"` // Amount, strictly positive
	Fecha     time.Time       `gorm:"type:datetime;not null;uniqueIndex:idx_tx_dedupe" json:"fecha"` // Caller-supplied timestamp, second precision
	CreatedAt time.Time       `json:"created_at"`                                                    // Timestamp of creation
	UpdatedAt time.Time       `json:"updated_at"`                                                    // Timestamp of last update
}

// TableName keeps the table name the API has always exposed
func (Transaction) TableName() string {
	return "transacciones"
}

// UserSummary is one row of the per-user aggregate report
type UserSummary struct {
	ID               uint            `json:"id"`                // User ID
	Usuario          string          `json:"usuario"`           // User name
	Email            string          `json:"email"`             // User email
	TotalTransferido decimal.Decimal `json:"total_transferido"` // Sum of the user's transaction amounts
	PromedioMonto    decimal.Decimal `json:"promedio_monto"`    // Average transaction amount
}

// ExportRow is one CSV line of the transaction export, owner fields already resolved
type ExportRow struct {
	ID        uint            // Transaction ID
	Usuario   string          // Owner name, "Unknown" when the owner is gone
	Email     string          // Owner email, "Unknown" when the owner is gone
	Monto     decimal.Decimal // Amount
	Fecha     time.Time       // Caller-supplied timestamp
	CreatedAt time.Time       // Timestamp of creation
	UpdatedAt time.Time       // Timestamp of last update
}
