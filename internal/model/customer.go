package model

import "time"

// Customer represents a serviced household.
type Customer struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"size:256;not null"`
	Address   string    `gorm:"size:512;not null"`
	Phone     string    `gorm:"size:32"`
	Latitude  *float64  // Cached geocode result; nil until the address resolves.
	Longitude *float64
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Rules []RecurrenceRule `gorm:"foreignKey:CustomerID"`
}

// HasCoordinate reports whether the customer's address has been geocoded.
func (c *Customer) HasCoordinate() bool {
	return c.Latitude != nil && c.Longitude != nil
}
