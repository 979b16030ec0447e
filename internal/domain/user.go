package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal type for money
)

// User Model
type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`                       // Primary key
	Name         string          `gorm:"size:255;not null" json:"name"`              // Display name
	Email        string          `gorm:"size:255;uniqueIndex;not null" json:"email"` // Unique email
	Password     string          `gorm:"not null" json:"-"`                          // Hashed password, never serialized
	SaldoInicial decimal.Decimal `gorm:"type:decimal(10,2)" json:"saldo_inicial"`    // Opening balance
	CreatedAt    time.Time       `json:"created_at"`                                 // Timestamp of creation
	UpdatedAt    time.Time       `json:"updated_at"`                                 // Timestamp of last update
}
