package plan

import (
	"math"
	"sort"
)

// percentSumTolerance absorbs float noise in configured curves; 99.9 is still
// a configuration error, 100.0000001 is not.
const percentSumTolerance = 1e-6

// MonthlyTargets spreads annualTotal across twelve months following the
// percentage curve, using largest-remainder rounding so the monthly values
// sum to annualTotal exactly. Leftover units go to the months with the
// largest fractional remainders; ties break on month index ascending
// (January first). Returns ErrInvalidSeasonality when the curve does not sum
// to 100.
func MonthlyTargets(annualTotal int, percentages [12]float64) ([12]int, error) {
	var targets [12]int

	var sum float64
	for _, p := range percentages {
		sum += p
	}
	if math.Abs(sum-100) > percentSumTolerance {
		return targets, ErrInvalidSeasonality
	}

	if annualTotal <= 0 {
		return targets, nil
	}

	type monthShare struct {
		month     int
		remainder float64
	}

	shares := make([]monthShare, 0, 12)
	assigned := 0
	for i, p := range percentages {
		raw := float64(annualTotal) * p / 100
		floor := int(math.Floor(raw))
		targets[i] = floor
		assigned += floor
		shares = append(shares, monthShare{month: i, remainder: raw - float64(floor)})
	}

	sort.SliceStable(shares, func(a, b int) bool {
		if shares[a].remainder != shares[b].remainder {
			return shares[a].remainder > shares[b].remainder
		}
		return shares[a].month < shares[b].month
	})

	// at most 11 leftover units: the fractional parts sum below 12
	for i := 0; i < annualTotal-assigned; i++ {
		targets[shares[i].month]++
	}

	return targets, nil
}

// UniformTargets spreads annualTotal evenly across the year, the curve used
// when seasonality weighting is switched off. Same conservation rule: the
// first annualTotal%12 months absorb the leftover units.
func UniformTargets(annualTotal int) [12]int {
	var targets [12]int
	if annualTotal <= 0 {
		return targets
	}

	base := annualTotal / 12
	extra := annualTotal % 12
	for i := range targets {
		targets[i] = base
		if i < extra {
			targets[i]++
		}
	}
	return targets
}
