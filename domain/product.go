package domain

import (
	"time"
)

// Product is a shipment product (letter, parcel, priority item) with an
// annual event target that the plan generator spreads across the year.
type Product struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	ClientID     uint      `gorm:"column:client_id;not null;index"`
	Code         string    `gorm:"column:code;not null"`
	Name         string    `gorm:"column:name;not null"`
	AnnualTarget int       `gorm:"column:annual_target;default:0"`
	Active       bool      `gorm:"column:active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (Product) TableName() string {
	return "products"
}
