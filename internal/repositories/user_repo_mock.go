package repositories

import (
	"sort"
	"sync"

	"bunga/internal/apperr"
	"bunga/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users     map[string]models.User
	addresses map[string]models.Address
	mu        sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:     make(map[string]models.User),
		addresses: make(map[string]models.Address),
	}
}

// Create adds a new user.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperr.Newf(apperr.CodeConflict, "email '%s' already registered", user.Email)
		}
	}
	r.users[user.ID] = *user
	return nil
}

// GetByEmail returns a user by email address.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, apperr.Newf(apperr.CodeNotFound, "user with email %s not found", email)
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "user with ID %s not found", id)
	}
	return &user, nil
}

// GetAll returns all users.
func (r *MockUserRepository) GetAll() ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

// SetApproved flips a user's approval flag.
func (r *MockUserRepository) SetApproved(id string, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return apperr.Newf(apperr.CodeNotFound, "user with ID %s not found for approval", id)
	}
	user.Approved = approved
	r.users[id] = user
	return nil
}

// SetPriceMultiplier stores a user's price multiplier.
func (r *MockUserRepository) SetPriceMultiplier(id string, multiplier float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return apperr.Newf(apperr.CodeNotFound, "user with ID %s not found for multiplier update", id)
	}
	user.PriceMultiplier = multiplier
	r.users[id] = user
	return nil
}

// CreateAddress stores a new address. Marking it default clears the previous
// default of the same user.
func (r *MockUserRepository) CreateAddress(address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	if address.IsDefault {
		for id, other := range r.addresses {
			if other.UserID == address.UserID && other.IsDefault {
				other.IsDefault = false
				r.addresses[id] = other
			}
		}
	}
	r.addresses[address.ID] = *address
	return nil
}

// GetAddress returns an address by ID.
func (r *MockUserRepository) GetAddress(id string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address, ok := r.addresses[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "address with ID %s not found", id)
	}
	return &address, nil
}

// GetAddressesByUser returns a user's addresses, default first.
func (r *MockUserRepository) GetAddressesByUser(userID string) ([]models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var addresses []models.Address
	for _, address := range r.addresses {
		if address.UserID == userID {
			addresses = append(addresses, address)
		}
	}
	sort.Slice(addresses, func(i, j int) bool {
		if addresses[i].IsDefault != addresses[j].IsDefault {
			return addresses[i].IsDefault
		}
		return addresses[i].ID < addresses[j].ID
	})
	return addresses, nil
}
