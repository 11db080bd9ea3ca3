package plan

import (
	"time"

	"postalops/domain"
)

type weekKey struct {
	panelistID uint
	weekStart  string // YYYY-MM-DD of the Monday
}

// CapacityLedger tracks how many shipment events touch each panelist's node
// per Monday-based week, against the panelist's weekly cap. It is seeded from
// persisted detail rows and then consumed in-memory during one generation
// run; it is not safe for concurrent use and is not meant to be.
type CapacityLedger struct {
	caps map[uint]int
	used map[weekKey]int
}

// NewCapacityLedger builds a ledger for the given panelists. Inactive
// panelists get zero capacity.
func NewCapacityLedger(panelists []domain.Panelist) *CapacityLedger {
	caps := make(map[uint]int, len(panelists))
	for _, p := range panelists {
		if p.Active {
			caps[p.ID] = p.WeeklyCap
		}
	}
	return &CapacityLedger{caps: caps, used: make(map[weekKey]int)}
}

// Seed counts existing non-cancelled detail rows against the panelists
// owning the referenced nodes. nodePanelist maps node id to its assigned
// panelist id.
func (l *CapacityLedger) Seed(details []domain.AllocationPlanDetail, nodePanelist map[uint]uint) {
	for _, d := range details {
		if d.Status == domain.DetailStatusCancelled {
			continue
		}
		if d.OriginNodeID != nil {
			if pid, ok := nodePanelist[*d.OriginNodeID]; ok {
				l.used[weekKeyFor(pid, d.ScheduledDate)]++
			}
		}
		if d.DestNodeID != nil {
			if pid, ok := nodePanelist[*d.DestNodeID]; ok {
				l.used[weekKeyFor(pid, d.ScheduledDate)]++
			}
		}
	}
}

// Remaining reports how many more events the panelist can take in the week
// containing day.
func (l *CapacityLedger) Remaining(panelistID uint, day time.Time) int {
	cap, ok := l.caps[panelistID]
	if !ok {
		return 0
	}
	remaining := cap - l.used[weekKeyFor(panelistID, day)]
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanAssign reports whether the panelist can take one more event on day.
func (l *CapacityLedger) CanAssign(panelistID uint, day time.Time) bool {
	return l.Remaining(panelistID, day) > 0
}

// Consume records one event on day for both ends of a shipment. Callers must
// have checked CanAssign for each panelist first.
func (l *CapacityLedger) Consume(originPanelistID, destPanelistID uint, day time.Time) {
	l.used[weekKeyFor(originPanelistID, day)]++
	l.used[weekKeyFor(destPanelistID, day)]++
}

// WeekStart returns the Monday of the week containing t, at midnight UTC.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

func weekKeyFor(panelistID uint, day time.Time) weekKey {
	return weekKey{panelistID: panelistID, weekStart: WeekStart(day).Format("2006-01-02")}
}
