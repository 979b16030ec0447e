package store

import (
	"context" // Request-scoped cancellation
	"errors"  // Error inspection

	"transacciones_api/internal/domain" // Domain models

	"gorm.io/gorm" // GORM ORM library
)

// Users is the GORM-backed UserStore
type Users struct {
	db *gorm.DB // Shared database handle
}

// NewUsers wraps a database handle into a UserStore
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// List returns all users
func (s *Users) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err // Query failed
	}
	return users, nil
}

// Get returns one user by id
func (s *Users) Get(ctx context.Context, id uint) (domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrNotFound // Unknown id
		}
		return domain.User{}, err // Query failed
	}
	return user, nil
}

// FindByEmail returns one user by email
func (s *Users) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrNotFound // Unknown email
		}
		return domain.User{}, err // Query failed
	}
	return user, nil
}

// EmailTaken reports whether another user already holds the email.
// excludeID skips the record's own row so updates don't collide with themselves.
func (s *Users) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID) // Exclude the record being updated
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err // Query failed
	}
	return count > 0, nil
}

// Create inserts a new user
func (s *Users) Create(ctx context.Context, u *domain.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrEmailTaken // Unique email index violated under a race
		}
		return err // Insert failed
	}
	return nil
}

// Update saves an already-merged user record
func (s *Users) Update(ctx context.Context, u *domain.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrEmailTaken // Unique email index violated under a race
		}
		return err // Save failed
	}
	return nil
}

// Delete removes a user. The owner foreign key on the user's transactions is set
// NULL by the schema, so the delete succeeds even with transactions present.
func (s *Users) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return res.Error // Delete failed
	}
	if res.RowsAffected == 0 {
		return ErrNotFound // Unknown id
	}
	return nil
}
