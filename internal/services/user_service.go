package services

import (
	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/internal/repositories"
)

// UserService handles account administration and address management.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// ListUsers returns every account; admin only.
func (s *UserService) ListUsers(caller *models.User) ([]models.User, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.CodeForbidden, "admin role required")
	}
	return s.userRepo.GetAll()
}

// ApproveUser clears an account for purchasing; admin only.
func (s *UserService) ApproveUser(caller *models.User, userID string) (*models.User, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.CodeForbidden, "admin role required")
	}
	if err := s.userRepo.SetApproved(userID, true); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(userID)
}

// SetPriceMultiplier sets a user's price multiplier; admin only. Invalid
// multipliers (NaN, infinite, outside [0.5, 20.0]) are never persisted.
func (s *UserService) SetPriceMultiplier(caller *models.User, userID string, multiplier float64) (*models.User, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.CodeForbidden, "admin role required")
	}
	if !IsValidPriceMultiplier(multiplier) {
		return nil, apperr.Newf(apperr.CodeValidation,
			"price multiplier must be between %.1f and %.1f", MinPriceMultiplier, MaxPriceMultiplier)
	}
	if err := s.userRepo.SetPriceMultiplier(userID, multiplier); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(userID)
}

// AddAddress stores a new address for the user. Flagging it as default
// clears the user's previous default.
func (s *UserService) AddAddress(user *models.User, address *models.Address) error {
	address.UserID = user.ID
	return s.userRepo.CreateAddress(address)
}

// ListAddresses returns the user's addresses, default first.
func (s *UserService) ListAddresses(user *models.User) ([]models.Address, error) {
	return s.userRepo.GetAddressesByUser(user.ID)
}
