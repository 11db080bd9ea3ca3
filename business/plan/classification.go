package plan

import (
	"postalops/domain"
)

// ClassCounts holds the number of active cities per classification in one
// client's topology.
type ClassCounts struct {
	A int
	B int
	C int
}

// CountActiveByClass tallies active cities per classification.
func CountActiveByClass(cities []domain.City) ClassCounts {
	var counts ClassCounts
	for _, c := range cities {
		if !c.Active {
			continue
		}
		switch c.Classification {
		case domain.ClassificationA:
			counts.A++
		case domain.ClassificationB:
			counts.B++
		case domain.ClassificationC:
			counts.C++
		}
	}
	return counts
}

// adjustedFor excludes the destination from its own classification bucket: a
// city never sends to itself.
func (c ClassCounts) adjustedFor(classification string) ClassCounts {
	switch classification {
	case domain.ClassificationA:
		c.A--
	case domain.ClassificationB:
		c.B--
	case domain.ClassificationC:
		c.C--
	}
	if c.A < 0 {
		c.A = 0
	}
	if c.B < 0 {
		c.B = 0
	}
	if c.C < 0 {
		c.C = 0
	}
	return c
}

// IncomingTotal computes how many events must arrive at dest over the plan
// year. The requirement row carries per-origin-city quotas, so each quota is
// multiplied by the number of sending cities of that classification, with
// dest excluded from its own bucket. A nil requirement means zero.
func IncomingTotal(dest domain.City, req *domain.CityRequirement, counts ClassCounts) int {
	if req == nil {
		return 0
	}

	adj := counts.adjustedFor(dest.Classification)
	return req.FromClassA*adj.A + req.FromClassB*adj.B + req.FromClassC*adj.C
}
