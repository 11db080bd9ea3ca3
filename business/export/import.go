package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"postalops/domain"
	"postalops/pkg/logger"

	"github.com/google/uuid"
)

var importHeader = []string{
	"client_id", "origin_node", "destination_node", "scheduled_date", "creation_reason",
	"origin_panelist_id", "destination_panelist_id", "carrier_id", "product_id",
	"product_type", "status", "label_number",
}

var importableStatuses = map[string]bool{
	domain.DetailStatusPending:   true,
	domain.DetailStatusNotified:  true,
	domain.DetailStatusSent:      true,
	domain.DetailStatusReceived:  true,
	domain.DetailStatusCancelled: true,
}

// RowError reports one rejected import line. Line numbers are 1-based and
// include the header.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes one bulk event import. Valid rows are inserted
// even when other rows fail; the caller gets both counts.
type ImportResult struct {
	BatchID  string     `json:"batch_id"`
	Checksum string     `json:"checksum"`
	Inserted int        `json:"inserted"`
	Rejected []RowError `json:"rejected,omitempty"`
}

// ImportPlanDetails parses the import-template CSV and bulk-creates shipment
// events for the client. Required columns: client_id, origin_node,
// destination_node, scheduled_date (YYYY-MM-DD), creation_reason. Status
// defaults to PENDING.
func (s *ExportService) ImportPlanDetails(ctx context.Context, clientID uint, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	col, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	nodes, err := s.nodeRepo.FindActiveNodes(ctx, clientID)
	if err != nil {
		return nil, err
	}
	nodeByCode := make(map[string]domain.Node, len(nodes))
	for _, n := range nodes {
		nodeByCode[n.Code] = n
	}

	result := &ImportResult{BatchID: uuid.NewString()}
	var details []domain.AllocationPlanDetail

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Rejected = append(result.Rejected, RowError{Line: line, Message: err.Error()})
			continue
		}

		detail, rowErr := parseImportRow(record, col, clientID, nodeByCode)
		if rowErr != "" {
			result.Rejected = append(result.Rejected, RowError{Line: line, Message: rowErr})
			continue
		}
		details = append(details, detail)
	}

	if err := s.detailRepo.CreateDetails(ctx, details); err != nil {
		return nil, err
	}

	result.Inserted = len(details)
	result.Checksum = checksumFor(result.BatchID, result.Inserted)

	logger.Info("plan details imported",
		"client_id", clientID,
		"batch_id", result.BatchID,
		"inserted", result.Inserted,
		"rejected", len(result.Rejected),
	)

	return result, nil
}

func headerIndex(header []string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"client_id", "origin_node", "destination_node", "scheduled_date", "creation_reason"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return col, nil
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func checkPanelistColumn(record []string, col map[string]int, name string, node domain.Node) string {
	raw := field(record, col, name)
	if raw == "" {
		return ""
	}
	panelistID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Sprintf("%s is not a number", name)
	}
	if node.PanelistID == nil || *node.PanelistID != uint(panelistID) {
		return fmt.Sprintf("%s %d does not match node %q", name, panelistID, node.Code)
	}
	return ""
}

func parseImportRow(record []string, col map[string]int, clientID uint, nodeByCode map[string]domain.Node) (domain.AllocationPlanDetail, string) {
	var detail domain.AllocationPlanDetail

	rowClient, err := strconv.ParseUint(field(record, col, "client_id"), 10, 64)
	if err != nil {
		return detail, "client_id is not a number"
	}
	if uint(rowClient) != clientID {
		return detail, fmt.Sprintf("client_id %d does not match import target %d", rowClient, clientID)
	}

	originCode := field(record, col, "origin_node")
	destCode := field(record, col, "destination_node")
	if originCode == "" || destCode == "" {
		return detail, "origin_node and destination_node are required"
	}
	origin, ok := nodeByCode[originCode]
	if !ok {
		return detail, fmt.Sprintf("unknown origin node %q", originCode)
	}
	dest, ok := nodeByCode[destCode]
	if !ok {
		return detail, fmt.Sprintf("unknown destination node %q", destCode)
	}

	// The optional panelist columns must agree with the topology; a stale
	// spreadsheet must not slip an event past a reassigned node.
	if msg := checkPanelistColumn(record, col, "origin_panelist_id", origin); msg != "" {
		return detail, msg
	}
	if msg := checkPanelistColumn(record, col, "destination_panelist_id", dest); msg != "" {
		return detail, msg
	}

	date, err := time.ParseInLocation("2006-01-02", field(record, col, "scheduled_date"), time.UTC)
	if err != nil {
		return detail, "scheduled_date must be YYYY-MM-DD"
	}

	reason := field(record, col, "creation_reason")
	if reason == "" {
		return detail, "creation_reason is required"
	}

	status := field(record, col, "status")
	if status == "" {
		status = domain.DetailStatusPending
	}
	if !importableStatuses[status] {
		return detail, fmt.Sprintf("invalid status %q", status)
	}

	originID := origin.ID
	destID := dest.ID
	detail = domain.AllocationPlanDetail{
		ClientID:       clientID,
		OriginNodeID:   &originID,
		DestNodeID:     &destID,
		ScheduledDate:  date,
		Status:         status,
		Live:           true,
		CreationReason: reason,
		ProductType:    field(record, col, "product_type"),
		LabelNumber:    field(record, col, "label_number"),
	}

	if raw := field(record, col, "product_id"); raw != "" {
		productID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return domain.AllocationPlanDetail{}, "product_id is not a number"
		}
		detail.ProductID = uint(productID)
	}
	if raw := field(record, col, "carrier_id"); raw != "" {
		carrierID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return domain.AllocationPlanDetail{}, "carrier_id is not a number"
		}
		id := uint(carrierID)
		detail.CarrierID = &id
	}

	return detail, ""
}
