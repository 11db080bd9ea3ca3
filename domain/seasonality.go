package domain

import (
	"time"
)

// ProductSeasonality holds the twelve monthly percentages that spread a
// product's annual event target across a year. The percentages must sum to
// 100; that contract is owned by configuration and enforced by the engine.
type ProductSeasonality struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ClientID  uint      `gorm:"column:client_id;not null;index"`
	ProductID uint      `gorm:"column:product_id;not null;index"`
	Year      int       `gorm:"column:year;not null"`
	January   float64   `gorm:"column:january;default:0"`
	February  float64   `gorm:"column:february;default:0"`
	March     float64   `gorm:"column:march;default:0"`
	April     float64   `gorm:"column:april;default:0"`
	May       float64   `gorm:"column:may;default:0"`
	June      float64   `gorm:"column:june;default:0"`
	July      float64   `gorm:"column:july;default:0"`
	August    float64   `gorm:"column:august;default:0"`
	September float64   `gorm:"column:september;default:0"`
	October   float64   `gorm:"column:october;default:0"`
	November  float64   `gorm:"column:november;default:0"`
	December  float64   `gorm:"column:december;default:0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ProductSeasonality) TableName() string {
	return "product_seasonality"
}

// Percentages returns the curve in month order, January first.
func (s ProductSeasonality) Percentages() [12]float64 {
	return [12]float64{
		s.January, s.February, s.March, s.April, s.May, s.June,
		s.July, s.August, s.September, s.October, s.November, s.December,
	}
}
