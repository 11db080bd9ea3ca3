package domain

import (
	"time"
)

// City classifications tier cities by population and postal traffic volume.
const (
	ClassificationA = "A"
	ClassificationB = "B"
	ClassificationC = "C"
)

// CREATE TABLE public.cities (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     client_id       BIGINT NOT NULL,
//     code            TEXT NOT NULL,
//     name            TEXT NOT NULL,
//     classification  TEXT NOT NULL,
//     population      BIGINT,
//     postal_volume   BIGINT,
//     active          BOOLEAN DEFAULT TRUE,
//     created_at      TIMESTAMPTZ DEFAULT NOW()
// );

type City struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	ClientID       uint      `gorm:"column:client_id;not null;index"`
	Code           string    `gorm:"column:code;not null"`
	Name           string    `gorm:"column:name;not null"`
	Classification string    `gorm:"column:classification;not null"`
	Population     int64     `gorm:"column:population"`
	PostalVolume   int64     `gorm:"column:postal_volume"`
	Active         bool      `gorm:"column:active;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (City) TableName() string {
	return "cities"
}

// CityRequirement configures how many incoming events a destination city must
// receive per origin city of each classification. A missing row means zero.
type CityRequirement struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	ClientID   uint      `gorm:"column:client_id;not null;index"`
	CityID     uint      `gorm:"column:city_id;not null;index"`
	FromClassA int       `gorm:"column:from_classification_a;default:0"`
	FromClassB int       `gorm:"column:from_classification_b;default:0"`
	FromClassC int       `gorm:"column:from_classification_c;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (CityRequirement) TableName() string {
	return "city_requirements"
}
