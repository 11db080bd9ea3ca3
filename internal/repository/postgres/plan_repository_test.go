package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"postalops/domain"
	"postalops/internal/repository/postgres"
	"postalops/pkg/database"
)

func uintp(v uint) *uint {
	return &v
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Both tables carry a client_id column; the affected-nodes query joins them,
// so the filter must resolve against the detail table without ambiguity.
func seedReassignableRows(t *testing.T) (*postgres.PlanRepository, *gorm.DB) {
	t.Helper()

	db, err := database.NewTestConnection()
	require.NoError(t, err)

	require.NoError(t, db.Create(&[]domain.Node{
		{ID: 10, ClientID: 1, Code: "BCN-01", CityID: 1, Active: true},
		{ID: 20, ClientID: 1, Code: "MAD-01", CityID: 2, Active: true},
	}).Error)
	require.NoError(t, db.Create(&[]domain.AllocationPlanDetail{
		{ClientID: 1, ProductID: 4, OriginNodeID: uintp(10), DestNodeID: uintp(20),
			ScheduledDate: date(2025, time.June, 2), Status: domain.DetailStatusPending, Live: true},
		{ClientID: 1, ProductID: 4, OriginNodeID: uintp(20), DestNodeID: uintp(10),
			ScheduledDate: date(2025, time.June, 9), Status: domain.DetailStatusNotified, Live: true},
		{ClientID: 1, ProductID: 4, OriginNodeID: uintp(10), DestNodeID: uintp(20),
			ScheduledDate: date(2025, time.June, 12), Status: domain.DetailStatusSent, Live: true},
	}).Error)

	return postgres.NewPlanRepository(db), db
}

func TestCountReassignable_CollectsNodeCodes(t *testing.T) {
	repo, _ := seedReassignableRows(t)

	count, codes, err := repo.CountReassignable(context.Background(), domain.ReassignFilter{
		ClientID: 1,
		NodeID:   10,
		DateFrom: date(2025, time.June, 1),
		DateTo:   date(2025, time.June, 30),
	})

	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "the SENT row is immutable")
	assert.Equal(t, []string{"BCN-01", "MAD-01"}, codes)
}

func TestCountReassignable_ZeroMatches(t *testing.T) {
	repo, _ := seedReassignableRows(t)

	count, codes, err := repo.CountReassignable(context.Background(), domain.ReassignFilter{
		ClientID: 1,
		NodeID:   10,
		DateFrom: date(2026, time.June, 1),
		DateTo:   date(2026, time.June, 30),
	})

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, codes)
}

func TestReassignNodes_CountsDistinctRows(t *testing.T) {
	repo, db := seedReassignableRows(t)

	updated, err := repo.ReassignNodes(context.Background(), domain.ReassignFilter{
		ClientID: 1,
		NodeID:   10,
		DateFrom: date(2025, time.June, 1),
		DateTo:   date(2025, time.June, 30),
	}, nil)

	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	var sent domain.AllocationPlanDetail
	require.NoError(t, db.Where("status = ?", domain.DetailStatusSent).First(&sent).Error)
	require.NotNil(t, sent.OriginNodeID)
	assert.Equal(t, uint(10), *sent.OriginNodeID)
}
