package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"transacciones_api/internal/domain" // Domain models
	"transacciones_api/internal/store"  // Store interfaces
	"transacciones_api/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client for the logout denylist
	"github.com/shopspring/decimal" // Exact decimal type for money
	"github.com/sirupsen/logrus"    // Logging library
	"golang.org/x/crypto/bcrypt"    // Password hashing
)

// RegisterRequest carries the fields of a self-service registration
type RegisterRequest struct {
	Name         string           `json:"name" binding:"required,max=255"`         // Display name
	Email        string           `json:"email" binding:"required,email,max=255"`  // Unique email
	Password     string           `json:"password" binding:"required,min=6"`       // Plain password, hashed before storage
	SaldoInicial *decimal.Decimal `json:"saldo_inicial" binding:"required"`        // Opening balance
}

// LoginRequest carries the credentials of a login attempt
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Account email
	Password string `json:"password" binding:"required"`    // Plain password
}

// AuthResponse carries an issued session token
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// RegisterHandler creates a new account and returns the stored user
func RegisterHandler(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return unprocessable entity
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid registration payload"})
			return
		}
		// Refuse an email another account already holds
		taken, err := users.EmailTaken(c.Request.Context(), req.Email, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check email"})
			return
		}
		if taken {
			// Duplicate email is a conflict, not a validation error
			c.JSON(http.StatusConflict, gin.H{"message": "Email already in use"})
			return
		}
		// Hash the password before storing the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
			return
		}
		user := domain.User{
			Name:         req.Name,          // Display name
			Email:        req.Email,         // Unique email
			Password:     string(hash),      // Hashed password
			SaldoInicial: *req.SaldoInicial, // Opening balance
		}
		// Attempt to create the user in the database
		if err := users.Create(c.Request.Context(), &user); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				// Unique index caught a racing registration
				c.JSON(http.StatusConflict, gin.H{"message": "Email already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to register user"})
			return
		}
		c.JSON(http.StatusCreated, user) // Return the stored user
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(users store.UserStore, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return unprocessable entity
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid login payload"})
			return
		}
		// Fetch the account by email
		user, err := users.FindByEmail(c.Request.Context(), req.Email)
		if err != nil {
			// Unknown email and wrong password look the same to the caller
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token}) // Return the token
	}
}

// LogoutHandler revokes the caller's token by placing it on the Redis denylist
// with the same TTL the token itself carries
func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, exists := c.Get("token") // Raw token stored by the auth middleware
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		// Denylist the token until it would have expired anyway
		if err := rdb.Set(c.Request.Context(), "denylist:"+token.(string), "1", utils.TokenTTL).Err(); err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to denylist token")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to log out"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"}) // Return success response
	}
}
