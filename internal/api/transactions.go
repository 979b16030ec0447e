package api

import (
	"context"  // Context for cache invalidation
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Fecha parsing

	"transacciones_api/internal/domain" // Domain models
	"transacciones_api/internal/policy" // Admission rule errors
	"transacciones_api/internal/store"  // Store interfaces
	"transacciones_api/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact decimal type for money
	"github.com/sirupsen/logrus"    // Logging library
)

// FechaLayout is the only accepted timestamp format for submitted transactions
const FechaLayout = "2006-01-02 15:04:05"

// Rejection messages fixed by the API contract
const (
	MsgDailyLimit = "Daily transfer limit reached (5,000 USD)" // Daily cap violation
	MsgDuplicate  = "Duplicate transaction detected"           // Duplicate submission
)

// txListCacheKey caches the full transaction listing
const txListCacheKey = "transacciones:list"

// CreateTransactionRequest carries a candidate transaction
type CreateTransactionRequest struct {
	UserID *uint            `json:"user_id" binding:"required"` // Owner reference
	Monto  *decimal.Decimal `json:"monto" binding:"required"`   // Amount, strictly positive
	Fecha  string           `json:"fecha" binding:"required"`   // Timestamp, "YYYY-MM-DD HH:MM:SS"
}

// ListTransactionsHandler returns all transactions with owner identity embedded
func ListTransactionsHandler(txs store.TransactionStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Serve from cache when available
		if rdb != nil {
			var cached []domain.Transaction
			if found, err := utils.GetCache(ctx, rdb, txListCacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, cached) // Return cached listing
				return
			}
		}
		list, err := txs.List(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch transactions"})
			return
		}
		// Cache the listing for a minute; writes invalidate it early
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, txListCacheKey, list, 60*time.Second)
		}
		c.JSON(http.StatusOK, list) // Return the listing
	}
}

// CreateTransactionHandler validates a candidate and hands it to the admission
// policy; business rejections come back as 400 with their fixed messages.
func CreateTransactionHandler(txs store.TransactionStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return unprocessable entity
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid transaction payload"})
			return
		}
		// Amount must be strictly positive
		if !req.Monto.IsPositive() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "monto must be greater than zero"})
			return
		}
		// The caller's timestamp is authoritative, second precision, fixed layout
		fecha, err := time.ParseInLocation(FechaLayout, req.Fecha, time.Local)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "fecha must have format YYYY-MM-DD HH:MM:SS"})
			return
		}
		t := domain.Transaction{
			UserID: req.UserID, // Owner reference
			Monto:  *req.Monto, // Amount
			Fecha:  fecha,      // Caller-supplied timestamp
		}
		// Admission check and insert run atomically in the store
		if err := txs.Create(c.Request.Context(), &t); err != nil {
			switch {
			case errors.Is(err, store.ErrOwnerMissing):
				// Unknown owner is a validation failure, the row is never created
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "user_id does not reference an existing user"})
			case errors.Is(err, policy.ErrDailyLimitExceeded):
				logrus.WithFields(logrus.Fields{
					"user_id": *req.UserID,        // Owner
					"monto":   req.Monto.String(), // Rejected amount
					"fecha":   req.Fecha,          // Candidate timestamp
				}).Info("Transaction rejected: daily limit")
				c.JSON(http.StatusBadRequest, gin.H{"message": MsgDailyLimit})
			case errors.Is(err, policy.ErrDuplicateTransaction):
				logrus.WithFields(logrus.Fields{
					"user_id": *req.UserID,        // Owner
					"monto":   req.Monto.String(), // Rejected amount
					"fecha":   req.Fecha,          // Candidate timestamp
				}).Info("Transaction rejected: duplicate")
				c.JSON(http.StatusBadRequest, gin.H{"message": MsgDuplicate})
			default:
				logrus.WithFields(logrus.Fields{
					"user_id": *req.UserID, // Owner
					"error":   err.Error(), // Error message
				}).Error("Transaction insert failed")
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record transaction"})
			}
			return
		}
		invalidateLedgerCaches(c.Request.Context(), rdb) // Listing and reports are stale now
		// Return created record
		c.JSON(http.StatusCreated, gin.H{"message": "Transaction recorded successfully", "data": t})
	}
}

// GetTransactionHandler returns one transaction by id with its owner embedded
func GetTransactionHandler(txs store.TransactionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c) // Parse the id path parameter
		if !ok {
			return
		}
		t, err := txs.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Transaction not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch transaction"})
			return
		}
		c.JSON(http.StatusOK, t) // Return the transaction
	}
}

// DeleteTransactionHandler removes a transaction; aggregates are recomputed on
// read, so no side effects are needed here
func DeleteTransactionHandler(txs store.TransactionStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c) // Parse the id path parameter
		if !ok {
			return
		}
		if err := txs.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Transaction not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete transaction"})
			return
		}
		invalidateLedgerCaches(c.Request.Context(), rdb)               // Listing and reports are stale now
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"}) // Return success response
	}
}

// invalidateLedgerCaches drops every cached view derived from the ledger
func invalidateLedgerCaches(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return // Caching disabled
	}
	_ = utils.DeleteCache(ctx, rdb, txListCacheKey)       // Listing
	_ = utils.DeleteCacheByPattern(ctx, rdb, "resumen:*") // Every summary variant
}
