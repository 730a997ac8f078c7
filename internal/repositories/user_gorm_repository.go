package repositories

import (
	"errors"
	"fmt"
	"time"

	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db      *gorm.DB
	metrics *metrics.Recorder
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
// The recorder may be nil.
func NewGORMUserRepository(db *gorm.DB, recorder *metrics.Recorder) *GORMUserRepository {
	return &GORMUserRepository{
		db:      db,
		metrics: recorder,
	}
}

func (r *GORMUserRepository) observe(name string, start time.Time) {
	r.metrics.Capture("db", "user."+name, time.Since(start))
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	defer r.observe("Create", time.Now())
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	defer r.observe("GetByEmail", time.Now())
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	defer r.observe("GetByID", time.Now())
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "user with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetAll retrieves all users, newest first.
func (r *GORMUserRepository) GetAll() ([]models.User, error) {
	defer r.observe("GetAll", time.Now())
	var users []models.User
	if err := r.db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// SetApproved flips a user's purchase approval flag.
func (r *GORMUserRepository) SetApproved(id string, approved bool) error {
	defer r.observe("SetApproved", time.Now())
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("approved", approved)
	if res.Error != nil {
		return fmt.Errorf("failed to set approved for user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "user with ID %s not found", id)
	}
	return nil
}

// SetPriceMultiplier persists a user's price multiplier. Range validation is
// the caller's responsibility.
func (r *GORMUserRepository) SetPriceMultiplier(id string, multiplier float64) error {
	defer r.observe("SetPriceMultiplier", time.Now())
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("price_multiplier", multiplier)
	if res.Error != nil {
		return fmt.Errorf("failed to set price multiplier for user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "user with ID %s not found", id)
	}
	return nil
}

// CreateAddress stores an address. When the address is flagged as default,
// the user's other defaults are cleared in the same transaction.
func (r *GORMUserRepository) CreateAddress(address *models.Address) error {
	defer r.observe("CreateAddress", time.Now())
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", address.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

// GetAddress retrieves a single address by its ID.
func (r *GORMUserRepository) GetAddress(id string) (*models.Address, error) {
	defer r.observe("GetAddress", time.Now())
	var address models.Address
	if err := r.db.First(&address, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "address with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get address by ID %s: %w", id, err)
	}
	return &address, nil
}

// GetAddressesByUser retrieves a user's addresses, default first.
func (r *GORMUserRepository) GetAddressesByUser(userID string) ([]models.Address, error) {
	defer r.observe("GetAddressesByUser", time.Now())
	var addresses []models.Address
	if err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to get addresses for user %s: %w", userID, err)
	}
	return addresses, nil
}
