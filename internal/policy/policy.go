package policy

import (
	"errors" // Sentinel business errors
	"time"   // Calendar day arithmetic

	"github.com/shopspring/decimal" // Exact decimal type for money
)

// Business rule violations returned by the admission check
var (
	ErrDailyLimitExceeded   = errors.New("daily transfer limit reached") // Daily cap would be exceeded
	ErrDuplicateTransaction = errors.New("duplicate transaction")        // Identical (owner, amount, timestamp) already recorded
)

// DailyLimit is the maximum total amount a user may transfer per calendar day
var DailyLimit = decimal.NewFromInt(5000)

// DayWindow returns the inclusive [00:00:00, 23:59:59] bounds of the calendar day
// the given timestamp falls on. The timestamp's own location is authoritative; no
// timezone normalization is applied.
func DayWindow(fecha time.Time) (time.Time, time.Time) {
	y, m, d := fecha.Date()                                    // Date component of the candidate
	start := time.Date(y, m, d, 0, 0, 0, 0, fecha.Location())  // Start of the day
	end := time.Date(y, m, d, 23, 59, 59, 0, fecha.Location()) // End of the day, inclusive
	return start, end
}

// Evaluate decides whether a candidate transaction may be persisted.
// daySum is the sum of the owner's existing transactions on the candidate's day,
// duplicate reports whether an identical (owner, amount, timestamp) row exists.
// The daily cap is checked first, matching the order of the admission rules.
func Evaluate(daySum, amount decimal.Decimal, duplicate bool) error {
	if daySum.Add(amount).GreaterThan(DailyLimit) {
		return ErrDailyLimitExceeded // Cap would be exceeded
	}
	if duplicate {
		return ErrDuplicateTransaction // Identical transaction already recorded
	}
	return nil // Admitted
}
