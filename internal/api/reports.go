package api

import (
	"encoding/csv" // CSV writer over the response body
	"net/http"     // HTTP status codes
	"strconv"      // Integer formatting for CSV cells
	"time"         // Filter parsing and export filename

	"transacciones_api/internal/domain" // Domain models
	"transacciones_api/internal/store"  // Store interfaces
	"transacciones_api/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// dateOnlyLayout is accepted on from/to filters besides the full FechaLayout
const dateOnlyLayout = "2006-01-02"

// exportHeader is the fixed CSV header row
var exportHeader = []string{"ID", "Name", "Email", "Amount", "Date", "Created", "Updated"}

// parseDateFilter reads the optional from/to query parameters. Each accepts the
// full fecha layout or a bare date; a bare date expands to the start (from) or
// end (to) of its day. ok is false after an error response has been written.
func parseDateFilter(c *gin.Context) (store.DateFilter, bool) {
	var f store.DateFilter
	if from := c.Query("from"); from != "" {
		ts, err := parseBound(from, false)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "from must have format YYYY-MM-DD or YYYY-MM-DD HH:MM:SS"})
			return f, false
		}
		f.From = &ts // Inclusive lower bound
	}
	if to := c.Query("to"); to != "" {
		ts, err := parseBound(to, true)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "to must have format YYYY-MM-DD or YYYY-MM-DD HH:MM:SS"})
			return f, false
		}
		f.To = &ts // Inclusive upper bound
	}
	return f, true
}

// parseBound parses one filter bound; end selects the end-of-day expansion
func parseBound(s string, end bool) (time.Time, error) {
	if ts, err := time.ParseInLocation(FechaLayout, s, time.Local); err == nil {
		return ts, nil // Full timestamp given
	}
	ts, err := time.ParseInLocation(dateOnlyLayout, s, time.Local)
	if err != nil {
		return time.Time{}, err // Neither layout matched
	}
	if end {
		return ts.Add(24*time.Hour - time.Second), nil // 23:59:59 of the given day
	}
	return ts, nil // 00:00:00 of the given day
}

// ExportCSVHandler streams every transaction as CSV, one row at a time
func ExportCSVHandler(txs store.TransactionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseDateFilter(c) // Optional from/to narrowing
		if !ok {
			return
		}
		filename := "transacciones_" + time.Now().Format("20060102_150405") + ".csv"
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Status(http.StatusOK)

		w := csv.NewWriter(c.Writer)
		if err := w.Write(exportHeader); err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("CSV export failed")
			return
		}
		// Stream rows straight from the database cursor into the response
		err := txs.ForEachExportRow(c.Request.Context(), filter, func(r domain.ExportRow) error {
			return w.Write([]string{
				strconv.FormatUint(uint64(r.ID), 10), // Transaction ID
				r.Usuario,                            // Owner name or "Unknown"
				r.Email,                              // Owner email or "Unknown"
				r.Monto.StringFixed(2),               // Amount
				r.Fecha.Format(FechaLayout),          // Caller-supplied timestamp
				r.CreatedAt.Format(FechaLayout),      // Creation timestamp
				r.UpdatedAt.Format(FechaLayout),      // Update timestamp
			})
		})
		if err != nil {
			// Headers are already out; all that is left is to log and cut the stream
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("CSV export failed")
			return
		}
		w.Flush()
	}
}

// SummaryByUserHandler returns total and average transferred per user, for every
// user with at least one transaction
func SummaryByUserHandler(txs store.TransactionStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseDateFilter(c) // Optional from/to narrowing
		if !ok {
			return
		}
		ctx := c.Request.Context()
		// One cache entry per filter variant
		cacheKey := "resumen:from=" + c.Query("from") + ":to=" + c.Query("to")
		if rdb != nil {
			var cached []domain.UserSummary
			if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, cached) // Return cached report
				return
			}
		}
		rows, err := txs.SummaryByUser(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to build summary"})
			return
		}
		// Cache the report for a minute; ledger writes invalidate it early
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, rows, 60*time.Second)
		}
		c.JSON(http.StatusOK, rows) // Return the report
	}
}
