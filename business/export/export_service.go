package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"postalops/business/plan"
	"postalops/business/topology"
	"postalops/domain"

	"github.com/pobyzaarif/goshortcute"
)

// The five CSV artifacts documented for the reporting side. Their numeric
// content mirrors the engine's internal model: the requirements table carries
// the same incoming-total formula the generator enforces.

type CityRepository interface {
	FindActiveByClient(ctx context.Context, clientID uint) ([]domain.City, error)
	FindRequirements(ctx context.Context, clientID uint) ([]domain.CityRequirement, error)
}

type SeasonalityRepository interface {
	FindByClient(ctx context.Context, clientID uint) ([]domain.ProductSeasonality, error)
}

type NodeRepository interface {
	FindActiveNodes(ctx context.Context, clientID uint) ([]domain.Node, error)
}

type PlanDetailRepository interface {
	FindLiveDetails(ctx context.Context, clientID uint) ([]domain.AllocationPlanDetail, error)
	CreateDetails(ctx context.Context, details []domain.AllocationPlanDetail) error
}

type TopologySummarizer interface {
	Summarize(ctx context.Context, clientID uint) ([]topology.Summary, error)
}

type ExportService struct {
	cityRepo        CityRepository
	seasonalityRepo SeasonalityRepository
	nodeRepo        NodeRepository
	detailRepo      PlanDetailRepository
	topology        TopologySummarizer
}

func NewExportService(
	cityRepo CityRepository,
	seasonalityRepo SeasonalityRepository,
	nodeRepo NodeRepository,
	detailRepo PlanDetailRepository,
	topologySvc TopologySummarizer,
) *ExportService {
	return &ExportService{
		cityRepo:        cityRepo,
		seasonalityRepo: seasonalityRepo,
		nodeRepo:        nodeRepo,
		detailRepo:      detailRepo,
		topology:        topologySvc,
	}
}

// WriteRequirements emits the city incoming-requirement table, including the
// computed incoming total per destination.
func (s *ExportService) WriteRequirements(ctx context.Context, clientID uint, w io.Writer) error {
	cities, err := s.cityRepo.FindActiveByClient(ctx, clientID)
	if err != nil {
		return err
	}
	requirements, err := s.cityRepo.FindRequirements(ctx, clientID)
	if err != nil {
		return err
	}

	reqByCity := make(map[uint]*domain.CityRequirement, len(requirements))
	for i := range requirements {
		reqByCity[requirements[i].CityID] = &requirements[i]
	}
	counts := plan.CountActiveByClass(cities)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"city_code", "city_name", "classification", "from_class_a", "from_class_b", "from_class_c", "incoming_total"}); err != nil {
		return err
	}

	for _, city := range cities {
		req := reqByCity[city.ID]
		var a, b, c int
		if req != nil {
			a, b, c = req.FromClassA, req.FromClassB, req.FromClassC
		}
		row := []string{
			city.Code,
			city.Name,
			city.Classification,
			strconv.Itoa(a),
			strconv.Itoa(b),
			strconv.Itoa(c),
			strconv.Itoa(plan.IncomingTotal(city, req, counts)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSeasonality emits every configured seasonality curve for the client.
func (s *ExportService) WriteSeasonality(ctx context.Context, clientID uint, w io.Writer) error {
	rows, err := s.seasonalityRepo.FindByClient(ctx, clientID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"product_id", "year",
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatUint(uint64(row.ProductID), 10),
			strconv.Itoa(row.Year),
		}
		for _, p := range row.Percentages() {
			record = append(record, strconv.FormatFloat(p, 'f', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTopology emits the node-city-panelist summary.
func (s *ExportService) WriteTopology(ctx context.Context, clientID uint, w io.Writer) error {
	summaries, err := s.topology.Summarize(ctx, clientID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"node_code", "city_code", "city_name", "classification", "country", "panelist_name", "weekly_cap"}); err != nil {
		return err
	}

	for _, row := range summaries {
		record := []string{
			row.NodeCode,
			row.CityCode,
			row.CityName,
			row.Classification,
			row.Country,
			row.PanelistName,
			strconv.Itoa(row.WeeklyCap),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePlanDetails emits the snapshot of live shipment events.
func (s *ExportService) WritePlanDetails(ctx context.Context, clientID uint, w io.Writer) error {
	details, err := s.detailRepo.FindLiveDetails(ctx, clientID)
	if err != nil {
		return err
	}
	nodeCodes, err := s.nodeCodeIndex(ctx, clientID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"detail_id", "plan_id", "origin_node", "destination_node", "scheduled_date", "product_id", "product_type", "status", "creation_reason", "label_number"}); err != nil {
		return err
	}

	for _, d := range details {
		record := []string{
			strconv.FormatUint(uint64(d.ID), 10),
			strconv.FormatUint(uint64(d.PlanID), 10),
			nodeCodeOrEmpty(nodeCodes, d.OriginNodeID),
			nodeCodeOrEmpty(nodeCodes, d.DestNodeID),
			d.ScheduledDate.Format("2006-01-02"),
			strconv.FormatUint(uint64(d.ProductID), 10),
			d.ProductType,
			d.Status,
			d.CreationReason,
			d.LabelNumber,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteImportTemplate emits the header row the bulk event import expects.
// Same column set as the import parser.
func (s *ExportService) WriteImportTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(importHeader); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (s *ExportService) nodeCodeIndex(ctx context.Context, clientID uint) (map[uint]string, error) {
	nodes, err := s.nodeRepo.FindActiveNodes(ctx, clientID)
	if err != nil {
		return nil, err
	}
	idx := make(map[uint]string, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = n.Code
	}
	return idx, nil
}

func nodeCodeOrEmpty(index map[uint]string, id *uint) string {
	if id == nil {
		return ""
	}
	return index[*id]
}

func checksumFor(batchID string, inserted int) string {
	return goshortcute.StringtoBase64Encode(fmt.Sprintf("%s:%d", batchID, inserted))
}
