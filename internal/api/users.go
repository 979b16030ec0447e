package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // Path parameter conversion

	"transacciones_api/internal/domain" // Domain models
	"transacciones_api/internal/store"  // Store interfaces

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal type for money
	"golang.org/x/crypto/bcrypt"    // Password hashing
)

// CreateUserRequest carries the fields of an admin user creation
type CreateUserRequest struct {
	Name         string           `json:"name" binding:"required,max=255"`        // Display name
	Email        string           `json:"email" binding:"required,email,max=255"` // Unique email
	Password     string           `json:"password" binding:"required,min=6"`      // Plain password, hashed before storage
	SaldoInicial *decimal.Decimal `json:"saldo_inicial" binding:"required"`       // Opening balance
}

// UpdateUserRequest carries a partial update: nil fields keep their stored value
type UpdateUserRequest struct {
	Name         *string          `json:"name" binding:"omitempty,max=255"`        // New display name, optional
	Email        *string          `json:"email" binding:"omitempty,email,max=255"` // New email, optional
	Password     *string          `json:"password" binding:"omitempty,min=6"`      // New plain password, optional, re-hashed when supplied
	SaldoInicial *decimal.Decimal `json:"saldo_inicial"`                           // New opening balance, optional
}

// MergeUserUpdate applies a partial update onto an existing record. Omitted fields
// keep their stored value; a supplied password is re-hashed, otherwise the prior
// hash is kept untouched.
func MergeUserUpdate(user *domain.User, req UpdateUserRequest) error {
	if req.Name != nil {
		user.Name = *req.Name // Replace name
	}
	if req.Email != nil {
		user.Email = *req.Email // Replace email
	}
	if req.SaldoInicial != nil {
		user.SaldoInicial = *req.SaldoInicial // Replace opening balance
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return err // Hashing failed
		}
		user.Password = string(hash) // Replace hash
	}
	return nil
}

// ListUsersHandler returns all users
func ListUsersHandler(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, list) // Return all users
	}
}

// CreateUserHandler creates a user via the admin CRUD surface
func CreateUserHandler(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return unprocessable entity
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid user payload"})
			return
		}
		// Refuse an email another account already holds
		taken, err := users.EmailTaken(c.Request.Context(), req.Email, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check email"})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"message": "Email already in use"})
			return
		}
		// Hash the password before storing the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
			return
		}
		user := domain.User{
			Name:         req.Name,          // Display name
			Email:        req.Email,         // Unique email
			Password:     string(hash),      // Hashed password
			SaldoInicial: *req.SaldoInicial, // Opening balance
		}
		if err := users.Create(c.Request.Context(), &user); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				c.JSON(http.StatusConflict, gin.H{"message": "Email already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
			return
		}
		c.JSON(http.StatusCreated, user) // Return the stored user
	}
}

// GetUserHandler returns one user by id
func GetUserHandler(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c) // Parse the id path parameter
		if !ok {
			return
		}
		user, err := users.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user"})
			return
		}
		c.JSON(http.StatusOK, user) // Return the user
	}
}

// UpdateUserHandler applies a partial update to a user
func UpdateUserHandler(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c) // Parse the id path parameter
		if !ok {
			return
		}
		var req UpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid user payload"})
			return
		}
		// Fetch the record the update merges into
		user, err := users.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user"})
			return
		}
		// A new email must not collide with any other account; the record's own row is excluded
		if req.Email != nil {
			taken, err := users.EmailTaken(c.Request.Context(), *req.Email, id)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check email"})
				return
			}
			if taken {
				c.JSON(http.StatusConflict, gin.H{"message": "Email already in use"})
				return
			}
		}
		// Merge provided fields onto the stored record
		if err := MergeUserUpdate(&user, req); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
			return
		}
		if err := users.Update(c.Request.Context(), &user); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				c.JSON(http.StatusConflict, gin.H{"message": "Email already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update user"})
			return
		}
		c.JSON(http.StatusOK, user) // Return the merged record
	}
}

// DeleteUserHandler removes a user. Transactions referencing it keep their rows;
// their owner reference is set NULL by the schema.
func DeleteUserHandler(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c) // Parse the id path parameter
		if !ok {
			return
		}
		if err := users.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"}) // Return success response
	}
}

// pathID parses the :id path parameter, answering 404 on garbage
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return 0, false
	}
	return uint(id), true
}
