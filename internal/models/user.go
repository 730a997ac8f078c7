package models

import "gorm.io/gorm"

// Role classifies a user account.
type Role string

const (
	RoleCustomer             Role = "CUSTOMER"
	RoleAdmin                Role = "ADMIN"
	RoleSubscriber           Role = "SUBSCRIBER"
	RoleNewsletterSubscriber Role = "NEWSLETTER_SUBSCRIBER"
)

var roles = map[Role]struct{}{
	RoleCustomer:             {},
	RoleAdmin:                {},
	RoleSubscriber:           {},
	RoleNewsletterSubscriber: {},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

// User represents an account of the store. Unapproved accounts may browse
// the catalog but may not mutate carts or check out.
type User struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Email           string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password        string    `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role            Role      `json:"role" gorm:"type:varchar(32);default:CUSTOMER"`
	Approved        bool      `json:"approved" gorm:"default:false"`
	PriceMultiplier float64   `json:"price_multiplier" gorm:"default:1.0"`
	Addresses       []Address `json:"addresses,omitempty" gorm:"foreignKey:UserID"`
	gorm.Model                // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Address is a delivery/billing address owned by a user. At most one address
// per user carries IsDefault; the repository clears other defaults on write.
type Address struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"user_id" gorm:"index;type:varchar(36)"`
	Recipient  string `json:"recipient" validate:"required,max=100"`
	Street     string `json:"street" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	IsDefault  bool   `json:"is_default"`
	gorm.Model
}
