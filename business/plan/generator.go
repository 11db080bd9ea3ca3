package plan

import (
	"sort"
	"time"

	"postalops/domain"
)

// GenerateOptions are pass-through toggles stored on the client
// configuration, not computed by the engine.
type GenerateOptions struct {
	// ApplyCityWeights orders destination cities by postal volume so heavier
	// cities fill their quotas first. Off means plain code order.
	ApplyCityWeights bool
	// ApplySeasonality spreads the annual target by the configured monthly
	// curve. Off means a uniform spread.
	ApplySeasonality bool
}

// DeferredUnit is one unit of demand the generator could not place inside its
// month. Deferred units are reported, never silently dropped: a partial plan
// is still useful.
type DeferredUnit struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	PreferredDate time.Time  `json:"preferred_date"`
	Reason        string     `json:"reason"`
}

// Deferral reasons.
const (
	ReasonQuotaExhausted = "incoming quotas exhausted"
	ReasonNoCapacity     = "no panelist capacity within month"
)

// GeneratorInput is everything one generation run reads. All of it is
// gathered up front so the run itself is pure and deterministic.
type GeneratorInput struct {
	ClientID     uint
	Product      domain.Product
	Year         int
	Cities       []domain.City
	Requirements []domain.CityRequirement
	Nodes        []domain.Node
	Panelists    []domain.Panelist
	Seasonality  *domain.ProductSeasonality
	// Existing non-cancelled detail rows, used to seed panelist capacity.
	Existing []domain.AllocationPlanDetail
	Options  GenerateOptions
}

// GenerateResult is a draft's worth of detail rows plus the demand that did
// not fit.
type GenerateResult struct {
	Details  []domain.AllocationPlanDetail
	Deferred []DeferredUnit
}

// nodeSlot pairs a node with its assigned active panelist.
type nodeSlot struct {
	node     domain.Node
	panelist domain.Panelist
}

// cityPair is one (origin city, destination city) lane with its yearly quota:
// the destination's per-origin-city requirement for the origin's
// classification.
type cityPair struct {
	originSlots []nodeSlot
	destSlots   []nodeSlot
	quota       int
	used        int
}

// BuildPlan turns the input into candidate shipment events. The run is
// strictly sequential: months in order, units in order, candidate lanes in a
// fixed rotation. Two calls with identical input produce identical output.
func BuildPlan(in GeneratorInput) (GenerateResult, error) {
	var result GenerateResult

	targets, err := monthTargetsFor(in)
	if err != nil {
		return result, err
	}

	pairs := buildCityPairs(in)
	ledger := NewCapacityLedger(in.Panelists)
	ledger.Seed(in.Existing, nodePanelistMap(in.Nodes))

	cursor := 0
	for month := time.January; month <= time.December; month++ {
		target := targets[int(month)-1]
		days := daysInMonth(in.Year, month)

		for unit := 0; unit < target; unit++ {
			preferred := time.Date(in.Year, month, spreadDay(unit, target, days), 0, 0, 0, 0, time.UTC)

			detail, quotaLeft, placed := placeUnit(pairs, &cursor, ledger, preferred, days)
			if !placed {
				reason := ReasonQuotaExhausted
				if quotaLeft {
					reason = ReasonNoCapacity
				}
				result.Deferred = append(result.Deferred, DeferredUnit{
					Year:          in.Year,
					Month:         month,
					PreferredDate: preferred,
					Reason:        reason,
				})
				continue
			}

			detail.ClientID = in.ClientID
			detail.ProductID = in.Product.ID
			detail.Status = domain.DetailStatusPending
			detail.CreationReason = "plan generation"
			result.Details = append(result.Details, detail)
		}
	}

	return result, nil
}

func monthTargetsFor(in GeneratorInput) ([12]int, error) {
	if !in.Options.ApplySeasonality {
		return UniformTargets(in.Product.AnnualTarget), nil
	}
	if in.Seasonality == nil {
		return [12]int{}, ErrSeasonalityNotFound
	}
	return MonthlyTargets(in.Product.AnnualTarget, in.Seasonality.Percentages())
}

// placeUnit walks the lanes from the rotating cursor and places one event on
// the first lane with quota left and a feasible date near preferred.
// quotaLeft reports whether any lane still had quota, which distinguishes the
// two deferral reasons.
func placeUnit(pairs []*cityPair, cursor *int, ledger *CapacityLedger, preferred time.Time, days int) (domain.AllocationPlanDetail, bool, bool) {
	quotaLeft := false
	for i := 0; i < len(pairs); i++ {
		pair := pairs[(*cursor+i)%len(pairs)]
		if pair.used >= pair.quota {
			continue
		}
		quotaLeft = true

		date, origin, dest, ok := feasibleDate(pair, ledger, preferred, days)
		if !ok {
			continue
		}

		pair.used++
		ledger.Consume(origin.panelist.ID, dest.panelist.ID, date)
		*cursor = (*cursor + i + 1) % len(pairs)

		originID := origin.node.ID
		destID := dest.node.ID
		return domain.AllocationPlanDetail{
			OriginNodeID:  &originID,
			DestNodeID:    &destID,
			ScheduledDate: date,
		}, quotaLeft, true
	}

	return domain.AllocationPlanDetail{}, quotaLeft, false
}

// feasibleDate searches outward from the preferred day (same day, then +1,
// -1, +2, -2 ...) staying inside the month, and returns the first date where
// some origin/destination node pair has panelist capacity on both ends.
func feasibleDate(pair *cityPair, ledger *CapacityLedger, preferred time.Time, days int) (time.Time, nodeSlot, nodeSlot, bool) {
	for offset := 0; offset < days; offset++ {
		for _, sign := range []int{1, -1} {
			if offset == 0 && sign == -1 {
				continue
			}
			day := preferred.Day() + sign*offset
			if day < 1 || day > days {
				continue
			}
			date := time.Date(preferred.Year(), preferred.Month(), day, 0, 0, 0, 0, time.UTC)

			for _, origin := range pair.originSlots {
				if !ledger.CanAssign(origin.panelist.ID, date) {
					continue
				}
				for _, dest := range pair.destSlots {
					if ledger.CanAssign(dest.panelist.ID, date) {
						return date, origin, dest, true
					}
				}
			}
		}
	}

	return time.Time{}, nodeSlot{}, nodeSlot{}, false
}

// buildCityPairs flattens the topology into ordered (origin, destination)
// lanes. Ordering is explicit everywhere; nothing depends on map iteration.
func buildCityPairs(in GeneratorInput) []*cityPair {
	reqByCity := make(map[uint]*domain.CityRequirement, len(in.Requirements))
	for i := range in.Requirements {
		reqByCity[in.Requirements[i].CityID] = &in.Requirements[i]
	}

	slotsByCity := buildNodeSlots(in.Nodes, in.Panelists)

	active := make([]domain.City, 0, len(in.Cities))
	for _, c := range in.Cities {
		if c.Active {
			active = append(active, c)
		}
	}

	destinations := make([]domain.City, len(active))
	copy(destinations, active)
	if in.Options.ApplyCityWeights {
		sort.SliceStable(destinations, func(a, b int) bool {
			if destinations[a].PostalVolume != destinations[b].PostalVolume {
				return destinations[a].PostalVolume > destinations[b].PostalVolume
			}
			return destinations[a].Code < destinations[b].Code
		})
	} else {
		sort.SliceStable(destinations, func(a, b int) bool {
			return destinations[a].Code < destinations[b].Code
		})
	}

	origins := make([]domain.City, len(active))
	copy(origins, active)
	sort.SliceStable(origins, func(a, b int) bool {
		return origins[a].Code < origins[b].Code
	})

	var pairs []*cityPair
	for _, dest := range destinations {
		req := reqByCity[dest.ID]
		if req == nil {
			continue
		}
		destSlots := slotsByCity[dest.ID]
		if len(destSlots) == 0 {
			continue
		}

		for _, origin := range origins {
			if origin.ID == dest.ID {
				continue
			}
			quota := quotaFor(req, origin.Classification)
			if quota <= 0 {
				continue
			}
			originSlots := slotsByCity[origin.ID]
			if len(originSlots) == 0 {
				continue
			}

			pairs = append(pairs, &cityPair{
				originSlots: originSlots,
				destSlots:   destSlots,
				quota:       quota,
			})
		}
	}

	return pairs
}

// buildNodeSlots resolves each city's active nodes to their active assigned
// panelists, sorted by node code.
func buildNodeSlots(nodes []domain.Node, panelists []domain.Panelist) map[uint][]nodeSlot {
	panelistByID := make(map[uint]domain.Panelist, len(panelists))
	for _, p := range panelists {
		if p.Active {
			panelistByID[p.ID] = p
		}
	}

	sorted := make([]domain.Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Code < sorted[b].Code
	})

	slots := make(map[uint][]nodeSlot)
	for _, n := range sorted {
		if !n.Active || n.PanelistID == nil {
			continue
		}
		p, ok := panelistByID[*n.PanelistID]
		if !ok {
			continue
		}
		slots[n.CityID] = append(slots[n.CityID], nodeSlot{node: n, panelist: p})
	}
	return slots
}

func quotaFor(req *domain.CityRequirement, originClassification string) int {
	switch originClassification {
	case domain.ClassificationA:
		return req.FromClassA
	case domain.ClassificationB:
		return req.FromClassB
	case domain.ClassificationC:
		return req.FromClassC
	}
	return 0
}

func nodePanelistMap(nodes []domain.Node) map[uint]uint {
	m := make(map[uint]uint, len(nodes))
	for _, n := range nodes {
		if n.PanelistID != nil {
			m[n.ID] = *n.PanelistID
		}
	}
	return m
}

// spreadDay places unit u of target t uniformly across a days-long month.
func spreadDay(unit, target, days int) int {
	if target <= 1 {
		return 1
	}
	day := 1 + unit*days/target
	if day > days {
		day = days
	}
	return day
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
