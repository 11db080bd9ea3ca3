package topology

import (
	"context"

	"postalops/domain"
)

type NodeRepository interface {
	FindActiveNodes(ctx context.Context, clientID uint) ([]domain.Node, error)
	FindActivePanelists(ctx context.Context, clientID uint) ([]domain.Panelist, error)
}

type CityRepository interface {
	FindActiveByClient(ctx context.Context, clientID uint) ([]domain.City, error)
}

// Summary is one node with its city and panelist resolved, the row shape the
// console's topology table and CSV export share.
type Summary struct {
	NodeCode       string `json:"node_code"`
	CityCode       string `json:"city_code"`
	CityName       string `json:"city_name"`
	Classification string `json:"classification"`
	Country        string `json:"country"`
	PanelistName   string `json:"panelist_name"`
	WeeklyCap      int    `json:"weekly_cap"`
}

type TopologyService struct {
	nodeRepo NodeRepository
	cityRepo CityRepository
}

func NewTopologyService(nodeRepo NodeRepository, cityRepo CityRepository) *TopologyService {
	return &TopologyService{
		nodeRepo: nodeRepo,
		cityRepo: cityRepo,
	}
}

// Summarize resolves node-city-panelist assignments for one client. Nodes
// without a panelist appear with an empty name and zero cap.
func (s *TopologyService) Summarize(ctx context.Context, clientID uint) ([]Summary, error) {
	nodes, err := s.nodeRepo.FindActiveNodes(ctx, clientID)
	if err != nil {
		return nil, err
	}
	panelists, err := s.nodeRepo.FindActivePanelists(ctx, clientID)
	if err != nil {
		return nil, err
	}
	cities, err := s.cityRepo.FindActiveByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	cityByID := make(map[uint]domain.City, len(cities))
	for _, c := range cities {
		cityByID[c.ID] = c
	}
	panelistByID := make(map[uint]domain.Panelist, len(panelists))
	for _, p := range panelists {
		panelistByID[p.ID] = p
	}

	summaries := make([]Summary, 0, len(nodes))
	for _, n := range nodes {
		row := Summary{
			NodeCode: n.Code,
			Country:  n.Country,
		}
		if city, ok := cityByID[n.CityID]; ok {
			row.CityCode = city.Code
			row.CityName = city.Name
			row.Classification = city.Classification
		}
		if n.PanelistID != nil {
			if p, ok := panelistByID[*n.PanelistID]; ok {
				row.PanelistName = p.Name
				row.WeeklyCap = p.WeeklyCap
			}
		}
		summaries = append(summaries, row)
	}

	return summaries, nil
}
