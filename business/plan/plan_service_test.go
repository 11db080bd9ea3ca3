package plan_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"postalops/business/plan"
	"postalops/domain"
	"postalops/internal/repository/postgres"
	"postalops/pkg/database"
)

const testTokenKey = "0123456789abcdef0123456789abcdef"

func uintp(v uint) *uint {
	return &v
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type harness struct {
	db  *gorm.DB
	svc *plan.PlanService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := database.NewTestConnection()
	require.NoError(t, err)

	svc := plan.NewPlanService(
		postgres.NewPlanRepository(db),
		postgres.NewCityRepository(db),
		postgres.NewProductRepository(db),
		postgres.NewSeasonalityRepository(db),
		postgres.NewTopologyRepository(db),
		testTokenKey,
		true,
	)
	return &harness{db: db, svc: svc}
}

// seedTopology wires client 1 with two class-A cities, one node and panelist
// each, a product and BCN's incoming requirement.
func (h *harness) seedTopology(t *testing.T, annualTarget int) {
	t.Helper()

	require.NoError(t, h.db.Create(&[]domain.City{
		{ID: 1, ClientID: 1, Code: "BCN", Name: "Barcelona", Classification: domain.ClassificationA, Active: true},
		{ID: 2, ClientID: 1, Code: "MAD", Name: "Madrid", Classification: domain.ClassificationA, Active: true},
	}).Error)
	require.NoError(t, h.db.Create(&[]domain.Node{
		{ID: 10, ClientID: 1, Code: "BCN-01", CityID: 1, Active: true, PanelistID: uintp(100)},
		{ID: 20, ClientID: 1, Code: "MAD-01", CityID: 2, Active: true, PanelistID: uintp(200)},
	}).Error)
	require.NoError(t, h.db.Create(&[]domain.Panelist{
		{ID: 100, ClientID: 1, Name: "Nuria", NodeID: uintp(10), WeeklyCap: 100, Active: true},
		{ID: 200, ClientID: 1, Name: "Diego", NodeID: uintp(20), WeeklyCap: 100, Active: true},
	}).Error)
	require.NoError(t, h.db.Create(&domain.Product{
		ID: 4, ClientID: 1, Code: "LTR", Name: "Standard letter", AnnualTarget: annualTarget, Active: true,
	}).Error)
	require.NoError(t, h.db.Create(&domain.CityRequirement{
		ClientID: 1, CityID: 1, FromClassA: 50,
	}).Error)
}

func (h *harness) detail(t *testing.T, d domain.AllocationPlanDetail) domain.AllocationPlanDetail {
	t.Helper()
	require.NoError(t, h.db.Create(&d).Error)
	return d
}

func TestGenerate_PersistsDraft(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)

	generated, err := h.svc.Generate(context.Background(), 1, 4, 2025, plan.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusDraft, generated.Plan.Status)
	assert.NotEmpty(t, generated.Plan.Reference)
	assert.Empty(t, generated.Deferred)
	require.Len(t, generated.Details, 6)
	for _, d := range generated.Details {
		assert.Equal(t, generated.Plan.ID, d.PlanID)
		assert.False(t, d.Live, "draft rows must not be live")
		assert.Equal(t, domain.DetailStatusPending, d.Status)
	}
}

func TestGenerate_RejectsForeignProduct(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)

	_, err := h.svc.Generate(context.Background(), 2, 4, 2025, plan.GenerateOptions{})

	assert.Error(t, err)
}

func TestMerge_AddFlipsLiveExactlyOnce(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)
	ctx := context.Background()

	generated, err := h.svc.Generate(ctx, 1, 4, 2025, plan.GenerateOptions{})
	require.NoError(t, err)

	result, err := h.svc.Merge(ctx, 1, generated.Plan.ID, domain.MergeStrategyAdd)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusMerged, result.Plan.Status)
	assert.NotNil(t, result.Plan.MergedAt)
	assert.Equal(t, 6, result.Inserted)
	assert.Zero(t, result.Superseded)

	var live int64
	require.NoError(t, h.db.Model(&domain.AllocationPlanDetail{}).
		Where("plan_id = ? AND live = ?", generated.Plan.ID, true).
		Count(&live).Error)
	assert.EqualValues(t, 6, live)

	_, err = h.svc.Merge(ctx, 1, generated.Plan.ID, domain.MergeStrategyAdd)
	assert.ErrorIs(t, err, plan.ErrAlreadyMerged)

	var total int64
	require.NoError(t, h.db.Model(&domain.AllocationPlanDetail{}).Count(&total).Error)
	assert.EqualValues(t, 6, total, "a failed re-merge must not duplicate rows")
}

func TestMerge_ReplaceCancelsSuperseded(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)
	ctx := context.Background()

	// Live rows for the same product: two inside the draft's year, one
	// already SENT and therefore immutable.
	inRange := h.detail(t, domain.AllocationPlanDetail{
		ClientID: 1, ProductID: 4, OriginNodeID: uintp(20), DestNodeID: uintp(10),
		ScheduledDate: date(2025, time.March, 3), Status: domain.DetailStatusPending, Live: true,
	})
	notified := h.detail(t, domain.AllocationPlanDetail{
		ClientID: 1, ProductID: 4, OriginNodeID: uintp(20), DestNodeID: uintp(10),
		ScheduledDate: date(2025, time.May, 14), Status: domain.DetailStatusNotified, Live: true,
	})
	sent := h.detail(t, domain.AllocationPlanDetail{
		ClientID: 1, ProductID: 4, OriginNodeID: uintp(20), DestNodeID: uintp(10),
		ScheduledDate: date(2025, time.March, 3), Status: domain.DetailStatusSent, Live: true,
	})

	generated, err := h.svc.Generate(ctx, 1, 4, 2025, plan.GenerateOptions{})
	require.NoError(t, err)

	result, err := h.svc.Merge(ctx, 1, generated.Plan.ID, domain.MergeStrategyReplace)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Superseded)

	// A fresh struct per lookup: gorm folds a primed primary key into the
	// query conditions.
	for _, tc := range []struct {
		id   uint
		want string
	}{
		{inRange.ID, domain.DetailStatusCancelled},
		{notified.ID, domain.DetailStatusCancelled},
		{sent.ID, domain.DetailStatusSent},
	} {
		var reloaded domain.AllocationPlanDetail
		require.NoError(t, h.db.First(&reloaded, tc.id).Error)
		assert.Equal(t, tc.want, reloaded.Status, "detail %d", tc.id)
	}
}

func TestMerge_RejectsUnknownStrategy(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)

	_, err := h.svc.Merge(context.Background(), 1, 1, "upsert")

	assert.ErrorIs(t, err, plan.ErrInvalidStrategy)
}

// seedReassignable stages the live rows around node 10 (panelist Nuria): three
// PENDING with it as origin, two NOTIFIED with it as destination, plus rows
// that must never move (immutable statuses, out of range, other client).
func (h *harness) seedReassignable(t *testing.T) (mutable []uint, frozen []uint) {
	t.Helper()

	for i := 0; i < 3; i++ {
		d := h.detail(t, domain.AllocationPlanDetail{
			ClientID: 1, ProductID: 4, OriginNodeID: uintp(10), DestNodeID: uintp(20),
			ScheduledDate: date(2025, time.June, 2+i), Status: domain.DetailStatusPending, Live: true,
		})
		mutable = append(mutable, d.ID)
	}
	for i := 0; i < 2; i++ {
		d := h.detail(t, domain.AllocationPlanDetail{
			ClientID: 1, ProductID: 4, OriginNodeID: uintp(20), DestNodeID: uintp(10),
			ScheduledDate: date(2025, time.June, 10+i), Status: domain.DetailStatusNotified, Live: true,
		})
		mutable = append(mutable, d.ID)
	}

	sent := h.detail(t, domain.AllocationPlanDetail{
		ClientID: 1, ProductID: 4, OriginNodeID: uintp(10), DestNodeID: uintp(20),
		ScheduledDate: date(2025, time.June, 5), Status: domain.DetailStatusSent, Live: true,
	})
	cancelled := h.detail(t, domain.AllocationPlanDetail{
		ClientID: 1, ProductID: 4, OriginNodeID: uintp(10), DestNodeID: uintp(20),
		ScheduledDate: date(2025, time.June, 6), Status: domain.DetailStatusCancelled, Live: true,
	})
	outOfRange := h.detail(t, domain.AllocationPlanDetail{
		ClientID: 1, ProductID: 4, OriginNodeID: uintp(10), DestNodeID: uintp(20),
		ScheduledDate: date(2025, time.September, 1), Status: domain.DetailStatusPending, Live: true,
	})
	draft := h.detail(t, domain.AllocationPlanDetail{
		ClientID: 1, ProductID: 4, OriginNodeID: uintp(10), DestNodeID: uintp(20),
		ScheduledDate: date(2025, time.June, 7), Status: domain.DetailStatusPending, Live: false,
	})
	return mutable, []uint{sent.ID, cancelled.ID, outOfRange.ID, draft.ID}
}

func TestPreviewExecute_UnassignsMatchedSides(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)
	mutable, frozen := h.seedReassignable(t)
	ctx := context.Background()

	req := plan.ReassignRequest{
		ClientID:      1,
		OldPanelistID: 100,
		NewPanelistID: nil,
		DateFrom:      date(2025, time.June, 1),
		DateTo:        date(2025, time.June, 30),
	}

	preview, err := h.svc.Preview(ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, 5, preview.AffectedCount)
	assert.Contains(t, preview.AffectedNodes, "BCN-01")
	assert.NotEmpty(t, preview.Token)

	executed, err := h.svc.Execute(ctx, req, preview.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 5, executed.UpdatedCount)

	for _, id := range mutable[:3] {
		var d domain.AllocationPlanDetail
		require.NoError(t, h.db.First(&d, id).Error)
		assert.Nil(t, d.OriginNodeID, "origin side must be unassigned")
		require.NotNil(t, d.DestNodeID)
		assert.Equal(t, uint(20), *d.DestNodeID, "other side must be untouched")
	}
	for _, id := range mutable[3:] {
		var d domain.AllocationPlanDetail
		require.NoError(t, h.db.First(&d, id).Error)
		assert.Nil(t, d.DestNodeID, "destination side must be unassigned")
	}
	for _, id := range frozen {
		var d domain.AllocationPlanDetail
		require.NoError(t, h.db.First(&d, id).Error)
		require.NotNil(t, d.OriginNodeID)
		assert.Equal(t, uint(10), *d.OriginNodeID)
	}
}

func TestExecute_RepointsToNewPanelistsNode(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)
	mutable, _ := h.seedReassignable(t)
	ctx := context.Background()

	req := plan.ReassignRequest{
		ClientID:      1,
		OldPanelistID: 100,
		NewPanelistID: uintp(200),
		DateFrom:      date(2025, time.June, 1),
		DateTo:        date(2025, time.June, 30),
	}

	executed, err := h.svc.Execute(ctx, req, "")
	require.NoError(t, err)
	assert.EqualValues(t, 5, executed.UpdatedCount)

	for _, id := range mutable[:3] {
		var d domain.AllocationPlanDetail
		require.NoError(t, h.db.First(&d, id).Error)
		require.NotNil(t, d.OriginNodeID)
		assert.Equal(t, uint(20), *d.OriginNodeID)
	}
}

func TestPreview_NothingToReassign(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)

	_, err := h.svc.Preview(context.Background(), plan.ReassignRequest{
		ClientID:      1,
		OldPanelistID: 100,
		DateFrom:      date(2025, time.June, 1),
		DateTo:        date(2025, time.June, 30),
	})

	assert.ErrorIs(t, err, plan.ErrNothingToReassign)
}

func TestPreview_InvertedDateRange(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)

	_, err := h.svc.Preview(context.Background(), plan.ReassignRequest{
		ClientID:      1,
		OldPanelistID: 100,
		DateFrom:      date(2025, time.June, 30),
		DateTo:        date(2025, time.June, 1),
	})

	assert.ErrorIs(t, err, plan.ErrInvalidDateRange)
}

func TestPreview_PanelistWithoutNode(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)
	require.NoError(t, h.db.Create(&domain.Panelist{
		ID: 300, ClientID: 1, Name: "Floater", WeeklyCap: 10, Active: true,
	}).Error)

	_, err := h.svc.Preview(context.Background(), plan.ReassignRequest{
		ClientID:      1,
		OldPanelistID: 300,
		DateFrom:      date(2025, time.June, 1),
		DateTo:        date(2025, time.June, 30),
	})

	assert.ErrorIs(t, err, plan.ErrNoAssignedNode)
}

func TestExecute_RejectsForeignToken(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)
	h.seedReassignable(t)
	ctx := context.Background()

	preview, err := h.svc.Preview(ctx, plan.ReassignRequest{
		ClientID:      1,
		OldPanelistID: 100,
		DateFrom:      date(2025, time.June, 1),
		DateTo:        date(2025, time.June, 30),
	})
	require.NoError(t, err)

	// Same token, narrower range: the pinned arguments no longer match.
	_, err = h.svc.Execute(ctx, plan.ReassignRequest{
		ClientID:      1,
		OldPanelistID: 100,
		DateFrom:      date(2025, time.June, 1),
		DateTo:        date(2025, time.June, 15),
	}, preview.Token)

	assert.ErrorIs(t, err, plan.ErrInvalidPreviewToken)
}

func TestSetRequirement_UpsertChangesIncomingTotal(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)
	ctx := context.Background()

	// seedTopology leaves BCN at 50 incoming class-A events; MAD is the one
	// other class-A city.
	total, err := h.svc.IncomingTotal(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, total)

	_, err = h.svc.SetRequirement(ctx, 1, 1, 30, 0, 0)
	require.NoError(t, err)

	total, err = h.svc.IncomingTotal(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, total)

	var count int64
	require.NoError(t, h.db.Model(&domain.CityRequirement{}).Where("city_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 1, count, "upsert must not duplicate the row")

	// A city without a prior row gets one created.
	created, err := h.svc.SetRequirement(ctx, 1, 2, 5, 5, 5)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = h.svc.SetRequirement(ctx, 2, 1, 1, 1, 1)
	assert.Error(t, err, "foreign clients cannot touch the requirement")
}

func TestGetPlan_EnforcesOwnership(t *testing.T) {
	h := newHarness(t)
	h.seedTopology(t, 6)
	ctx := context.Background()

	generated, err := h.svc.Generate(ctx, 1, 4, 2025, plan.GenerateOptions{})
	require.NoError(t, err)

	_, _, err = h.svc.GetPlan(ctx, 2, generated.Plan.ID)
	assert.Error(t, err)

	found, details, err := h.svc.GetPlan(ctx, 1, generated.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, generated.Plan.ID, found.ID)
	assert.Len(t, details, 6)
}
