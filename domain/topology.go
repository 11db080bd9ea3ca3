package domain

import (
	"time"
)

// Node is a physical delivery point in a city. A node has at most one active
// panelist assigned to it.
type Node struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	ClientID   uint      `gorm:"column:client_id;not null;index"`
	Code       string    `gorm:"column:code;not null"`
	CityID     uint      `gorm:"column:city_id;not null;index"`
	Country    string    `gorm:"column:country"`
	Active     bool      `gorm:"column:active;default:true"`
	PanelistID *uint     `gorm:"column:panelist_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Node) TableName() string {
	return "nodes"
}

// Panelist is the person operating a node. WeeklyCap bounds how many shipment
// events may touch the panelist's node in any Monday-based week.
type Panelist struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ClientID  uint      `gorm:"column:client_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	NodeID    *uint     `gorm:"column:node_id"`
	WeeklyCap int       `gorm:"column:weekly_cap;default:0"`
	Active    bool      `gorm:"column:active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Panelist) TableName() string {
	return "panelists"
}
