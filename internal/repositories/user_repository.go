package repositories

import "bunga/internal/models"

// UserRepository defines the interface for user and address data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	GetAll() ([]models.User, error)
	SetApproved(id string, approved bool) error
	SetPriceMultiplier(id string, multiplier float64) error

	CreateAddress(address *models.Address) error
	GetAddress(id string) (*models.Address, error)
	GetAddressesByUser(userID string) ([]models.Address, error)
}
