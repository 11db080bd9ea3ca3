package domain

import (
	"time"
)

// Plan lifecycle. A plan is created as draft by generation and becomes merged
// exactly once; there is no way back to draft.
const (
	PlanStatusDraft  = "draft"
	PlanStatusMerged = "merged"
)

// Merge strategies.
const (
	MergeStrategyAdd     = "add"
	MergeStrategyReplace = "replace"
)

// Shipment event lifecycle. Only PENDING and NOTIFIED rows are mutable;
// SENT, RECEIVED and CANCELLED rows are immutable history.
const (
	DetailStatusPending   = "PENDING"
	DetailStatusNotified  = "NOTIFIED"
	DetailStatusSent      = "SENT"
	DetailStatusReceived  = "RECEIVED"
	DetailStatusCancelled = "CANCELLED"
)

// CREATE TABLE public.allocation_plans (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     client_id       BIGINT NOT NULL,
//     product_id      BIGINT NOT NULL,
//     year            INT NOT NULL,
//     reference       UUID NOT NULL,
//     status          TEXT NOT NULL DEFAULT 'draft',
//     merge_strategy  TEXT,
//     created_at      TIMESTAMPTZ DEFAULT NOW(),
//     merged_at       TIMESTAMPTZ
// );

type AllocationPlan struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"`
	ClientID      uint       `gorm:"column:client_id;not null;index"`
	ProductID     uint       `gorm:"column:product_id;not null"`
	Year          int        `gorm:"column:year;not null"`
	Reference     string     `gorm:"column:reference;not null"`
	Status        string     `gorm:"column:status;not null;default:draft"`
	MergeStrategy string     `gorm:"column:merge_strategy"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	MergedAt      *time.Time `gorm:"column:merged_at"`
}

func (AllocationPlan) TableName() string {
	return "allocation_plans"
}

// AllocationPlanDetail is one scheduled shipment event. Origin and
// destination node are nullable because bulk reassignment may unassign them.
// Live is false while the owning plan is still a draft. PlanID is zero for
// events created through the bulk import, which bypass plan generation.
type AllocationPlanDetail struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	PlanID         uint      `gorm:"column:plan_id;index"`
	ClientID       uint      `gorm:"column:client_id;not null;index"`
	OriginNodeID   *uint     `gorm:"column:origin_node_id;index"`
	DestNodeID     *uint     `gorm:"column:dest_node_id;index"`
	ProductID      uint      `gorm:"column:product_id"`
	ProductType    string    `gorm:"column:product_type"`
	ScheduledDate  time.Time `gorm:"column:scheduled_date;type:date;not null"`
	Status         string    `gorm:"column:status;not null;default:PENDING"`
	Live           bool      `gorm:"column:live;default:false"`
	CreationReason string    `gorm:"column:creation_reason"`
	CarrierID      *uint     `gorm:"column:carrier_id"`
	LabelNumber    string    `gorm:"column:label_number"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (AllocationPlanDetail) TableName() string {
	return "allocation_plan_details"
}

// ReassignFilter selects the live detail rows touched by a bulk panelist
// reassignment: rows referencing NodeID as origin or destination, still in a
// mutable status, scheduled inside [DateFrom, DateTo].
type ReassignFilter struct {
	ClientID uint
	NodeID   uint
	DateFrom time.Time
	DateTo   time.Time
}

// SupersedeFilter selects the live rows a replace-merge cancels or deletes:
// same client and product, scheduled inside the draft's date range.
type SupersedeFilter struct {
	ClientID  uint
	ProductID uint
	DateFrom  time.Time
	DateTo    time.Time
}
