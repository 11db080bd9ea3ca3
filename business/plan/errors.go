package plan

import "errors"

var (
	// ErrInvalidSeasonality means the twelve monthly percentages do not sum
	// to 100. Seasonality correctness is owned by configuration; the engine
	// rejects rather than rescales.
	ErrInvalidSeasonality = errors.New("seasonality percentages must sum to 100")

	// ErrAlreadyMerged means a merge was attempted on a plan that is no
	// longer a draft.
	ErrAlreadyMerged = errors.New("plan is already merged")

	// ErrNoAssignedNode means a panelist referenced by a reassignment has no
	// node assigned.
	ErrNoAssignedNode = errors.New("panelist has no assigned node")

	// ErrInvalidDateRange means date_from is after date_to.
	ErrInvalidDateRange = errors.New("date_from is after date_to")

	// ErrNothingToReassign means the reassignment filter matched zero rows.
	// Reported explicitly so the caller can tell a no-op from a failure.
	ErrNothingToReassign = errors.New("no shipment events match the reassignment filter")

	// ErrInvalidPreviewToken means the token handed to Execute does not match
	// the request arguments it was issued for.
	ErrInvalidPreviewToken = errors.New("preview token does not match request")

	ErrSeasonalityNotFound = errors.New("no seasonality configured for product and year")
	ErrInvalidStrategy     = errors.New("merge strategy must be add or replace")
)
