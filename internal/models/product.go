package models

import "gorm.io/gorm"

// ProductType groups catalog entries for filtering.
type ProductType string

const (
	ProductTypeFreshFlower ProductType = "FRESH_FLOWER"
	ProductTypeDriedFlower ProductType = "DRIED_FLOWER"
	ProductTypeGreenery    ProductType = "GREENERY"
	ProductTypeSupply      ProductType = "SUPPLY"
)

// Product represents a catalog entry. A nil Price means the product is
// market-priced: its price is set by staff before an order is confirmed and
// the product contributes nothing to cart subtotals until then.
type Product struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string           `json:"name" validate:"required,min=2,max=100"`
	Slug        string           `json:"slug" gorm:"uniqueIndex;type:varchar(120)" validate:"omitempty,max=120"`
	Description string           `json:"description" validate:"omitempty,max=2000"`
	Price       *float64         `json:"price" validate:"omitempty,gt=0"`
	ProductType ProductType      `json:"product_type" gorm:"type:varchar(32)"`
	Images      []string         `json:"images" gorm:"serializer:json"`
	Colors      []string         `json:"colors" gorm:"serializer:json"`
	Variants    []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
	gorm.Model                   // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// FirstImage returns the product's lead image URL, or nil if it has none.
func (p *Product) FirstImage() *string {
	if len(p.Images) == 0 {
		return nil
	}
	img := p.Images[0]
	return &img
}

// ProductVariant distinguishes a product by stem length and bunch size,
// each variant carrying its own (possibly market) price.
type ProductVariant struct {
	ID            string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID     string   `json:"product_id" gorm:"index;type:varchar(36)"`
	StemLength    int      `json:"stem_length" validate:"gte=0"`
	CountPerBunch int      `json:"count_per_bunch" validate:"gte=0"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	gorm.Model
}
