package export_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"postalops/business/export"
	"postalops/domain"
)

func seedImportNodes(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&[]domain.Node{
		{ID: 10, ClientID: 1, Code: "BCN-01", CityID: 1, PanelistID: uintp(100), Active: true},
		{ID: 20, ClientID: 1, Code: "MAD-01", CityID: 2, PanelistID: uintp(200), Active: true},
	}).Error)
}

func importCSV(t *testing.T, svc *export.ExportService, body string) *export.ImportResult {
	t.Helper()
	result, err := svc.ImportPlanDetails(context.Background(), 1, strings.NewReader(body))
	require.NoError(t, err)
	return result
}

func TestImportPlanDetails_InsertsValidRows(t *testing.T) {
	svc, db := newExportService(t)
	seedImportNodes(t, db)

	result := importCSV(t, svc, strings.Join([]string{
		"client_id,origin_node,destination_node,scheduled_date,creation_reason,status,product_id,product_type,carrier_id,label_number",
		"1,MAD-01,BCN-01,2025-03-03,manual backfill,NOTIFIED,4,LTR,7,LBL-001",
		"1,BCN-01,MAD-01,2025-03-04,manual backfill,,,,,",
	}, "\n"))

	assert.Equal(t, 2, result.Inserted)
	assert.Empty(t, result.Rejected)
	assert.NotEmpty(t, result.BatchID)
	assert.NotEmpty(t, result.Checksum)

	var rows []domain.AllocationPlanDetail
	require.NoError(t, db.Order("scheduled_date").Find(&rows).Error)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.True(t, first.Live, "imported events join the live set")
	assert.Zero(t, first.PlanID, "imported events belong to no plan")
	assert.Equal(t, domain.DetailStatusNotified, first.Status)
	assert.Equal(t, uint(20), *first.OriginNodeID)
	assert.Equal(t, uint(4), first.ProductID)
	assert.Equal(t, "LTR", first.ProductType)
	require.NotNil(t, first.CarrierID)
	assert.Equal(t, uint(7), *first.CarrierID)
	assert.Equal(t, "LBL-001", first.LabelNumber)

	// Omitted status defaults to PENDING.
	assert.Equal(t, domain.DetailStatusPending, rows[1].Status)
}

func TestImportPlanDetails_RejectsBadRowsKeepsGood(t *testing.T) {
	svc, db := newExportService(t)
	seedImportNodes(t, db)

	result := importCSV(t, svc, strings.Join([]string{
		"client_id,origin_node,destination_node,scheduled_date,creation_reason",
		"1,MAD-01,BCN-01,2025-03-03,manual backfill",
		"2,MAD-01,BCN-01,2025-03-03,manual backfill",
		"1,XXX-01,BCN-01,2025-03-03,manual backfill",
		"1,MAD-01,BCN-01,03/03/2025,manual backfill",
		"1,MAD-01,BCN-01,2025-03-03,",
	}, "\n"))

	assert.Equal(t, 1, result.Inserted)
	require.Len(t, result.Rejected, 4)
	assert.Equal(t, 3, result.Rejected[0].Line)
	assert.Contains(t, result.Rejected[0].Message, "does not match")
	assert.Contains(t, result.Rejected[1].Message, "unknown origin node")
	assert.Contains(t, result.Rejected[2].Message, "YYYY-MM-DD")
	assert.Contains(t, result.Rejected[3].Message, "creation_reason")

	var count int64
	require.NoError(t, db.Model(&domain.AllocationPlanDetail{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestImportPlanDetails_ChecksPanelistColumns(t *testing.T) {
	svc, db := newExportService(t)
	seedImportNodes(t, db)

	result := importCSV(t, svc, strings.Join([]string{
		"client_id,origin_node,destination_node,scheduled_date,creation_reason,origin_panelist_id,destination_panelist_id",
		"1,MAD-01,BCN-01,2025-03-03,manual backfill,200,100",
		"1,MAD-01,BCN-01,2025-03-04,manual backfill,999,100",
		"1,MAD-01,BCN-01,2025-03-05,manual backfill,200,abc",
	}, "\n"))

	assert.Equal(t, 1, result.Inserted)
	require.Len(t, result.Rejected, 2)
	assert.Equal(t, 3, result.Rejected[0].Line)
	assert.Contains(t, result.Rejected[0].Message, `does not match node "MAD-01"`)
	assert.Contains(t, result.Rejected[1].Message, "destination_panelist_id is not a number")
}

func TestImportPlanDetails_RejectsInvalidStatus(t *testing.T) {
	svc, db := newExportService(t)
	seedImportNodes(t, db)

	result := importCSV(t, svc, strings.Join([]string{
		"client_id,origin_node,destination_node,scheduled_date,creation_reason,status",
		"1,MAD-01,BCN-01,2025-03-03,manual backfill,SHIPPED",
	}, "\n"))

	assert.Zero(t, result.Inserted)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0].Message, `invalid status "SHIPPED"`)
}

func TestImportPlanDetails_MissingRequiredColumn(t *testing.T) {
	svc, db := newExportService(t)
	seedImportNodes(t, db)

	_, err := svc.ImportPlanDetails(context.Background(), 1,
		strings.NewReader("client_id,origin_node,destination_node,creation_reason\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduled_date")
}
