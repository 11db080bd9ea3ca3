package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"postalops/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart_MondayBased(t *testing.T) {
	// 2025-06-09 is a Monday.
	monday := day(2025, time.June, 9)

	assert.Equal(t, monday, WeekStart(monday))
	assert.Equal(t, monday, WeekStart(day(2025, time.June, 11)))
	assert.Equal(t, monday, WeekStart(day(2025, time.June, 15))) // Sunday
	assert.Equal(t, day(2025, time.June, 16), WeekStart(day(2025, time.June, 16)))
}

func TestCapacityLedger_ConsumeAcrossWeeks(t *testing.T) {
	ledger := NewCapacityLedger([]domain.Panelist{
		{ID: 1, WeeklyCap: 2, Active: true},
		{ID: 2, WeeklyCap: 5, Active: true},
	})

	wed := day(2025, time.June, 11)
	assert.Equal(t, 2, ledger.Remaining(1, wed))
	assert.True(t, ledger.CanAssign(1, wed))

	ledger.Consume(1, 2, wed)
	ledger.Consume(1, 2, day(2025, time.June, 13))

	assert.Equal(t, 0, ledger.Remaining(1, wed))
	assert.False(t, ledger.CanAssign(1, day(2025, time.June, 15)))
	assert.Equal(t, 3, ledger.Remaining(2, wed))

	// Next Monday opens a fresh week.
	assert.True(t, ledger.CanAssign(1, day(2025, time.June, 16)))
	assert.Equal(t, 2, ledger.Remaining(1, day(2025, time.June, 16)))
}

func TestCapacityLedger_InactiveAndUnknownPanelists(t *testing.T) {
	ledger := NewCapacityLedger([]domain.Panelist{
		{ID: 1, WeeklyCap: 4, Active: false},
	})

	assert.Equal(t, 0, ledger.Remaining(1, day(2025, time.June, 11)))
	assert.False(t, ledger.CanAssign(99, day(2025, time.June, 11)))
}

func TestCapacityLedger_SeedSkipsCancelled(t *testing.T) {
	ledger := NewCapacityLedger([]domain.Panelist{
		{ID: 7, WeeklyCap: 3, Active: true},
	})

	originNode := uint(10)
	destNode := uint(11)
	when := day(2025, time.March, 5)
	ledger.Seed([]domain.AllocationPlanDetail{
		{OriginNodeID: &originNode, ScheduledDate: when, Status: domain.DetailStatusPending},
		{DestNodeID: &destNode, ScheduledDate: when, Status: domain.DetailStatusNotified},
		{OriginNodeID: &originNode, ScheduledDate: when, Status: domain.DetailStatusCancelled},
	}, map[uint]uint{10: 7, 11: 7})

	assert.Equal(t, 1, ledger.Remaining(7, when))
}
