package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Listing is a property record. Typed columns cover the searchable fields;
// Attributes keeps the raw upstream record so downstream consumers see every
// field the feed delivered.
type Listing struct {
	ID                int64             `json:"id" gorm:"primaryKey"`
	MLSNumber         string            `json:"mls_number" gorm:"column:mls_number;type:text;not null;uniqueIndex:ux_listings_mls_number"`
	Address           string            `json:"address" gorm:"type:text;not null"`
	City              string            `json:"city" gorm:"type:text"`
	StateOrProvince   string            `json:"state_or_province" gorm:"type:text"`
	PostalCode        string            `json:"postal_code" gorm:"type:text"`
	Status            string            `json:"status" gorm:"type:text;not null;index"`
	ListPrice         float64           `json:"list_price" gorm:"not null;default:0"`
	ClosePrice        float64           `json:"close_price" gorm:"not null;default:0"`
	LivingArea        float64           `json:"living_area" gorm:"not null;default:0"`
	Bedrooms          float64           `json:"bedrooms" gorm:"not null;default:0"`
	Bathrooms         float64           `json:"bathrooms" gorm:"not null;default:0"`
	GarageSpaces      float64           `json:"garage_spaces" gorm:"not null;default:0"`
	YearBuilt         int               `json:"year_built" gorm:"not null;default:0"`
	LotSizeSquareFeet float64           `json:"lot_size_square_feet" gorm:"not null;default:0"`
	PoolFeatures      string            `json:"pool_features" gorm:"type:text"`
	CloseDate         *time.Time        `json:"close_date,omitempty"`
	Attributes        datatypes.JSONMap `json:"attributes,omitempty" gorm:"type:jsonb"`
	CreatedAt         time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Listing) TableName() string { return "listings" }

const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusSold    = "sold"
)

// Record merges the typed columns over the raw attributes, yielding the
// upstream-shaped record the adjustment engine consumes.
func (l *Listing) Record() map[string]any {
	rec := make(map[string]any, len(l.Attributes)+10)
	for k, v := range l.Attributes {
		rec[k] = v
	}
	rec["ListingId"] = l.MLSNumber
	rec["UnparsedAddress"] = l.Address
	rec["City"] = l.City
	rec["LivingArea"] = l.LivingArea
	rec["BedroomsTotal"] = l.Bedrooms
	rec["BathroomsTotal"] = l.Bathrooms
	rec["GarageSpaces"] = l.GarageSpaces
	rec["YearBuilt"] = float64(l.YearBuilt)
	rec["LotSizeSquareFeet"] = l.LotSizeSquareFeet
	// An empty column must not shadow a raw attribute that carries the
	// features in a non-string shape.
	if l.PoolFeatures != "" {
		rec["PoolFeatures"] = l.PoolFeatures
	}
	rec["ListPrice"] = l.ListPrice
	rec["ClosePrice"] = l.ClosePrice
	return rec
}
