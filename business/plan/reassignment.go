package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"postalops/domain"
	"postalops/pkg/logger"
	"postalops/pkg/metrics"

	"github.com/pobyzaarif/goshortcute"
)

// ReassignRequest describes one bulk panelist reassignment. A nil
// NewPanelistID unassigns the matched events instead of re-pointing them.
type ReassignRequest struct {
	ClientID      uint
	OldPanelistID uint
	NewPanelistID *uint
	DateFrom      time.Time
	DateTo        time.Time
}

// PreviewResult is what the operator confirms before executing. The pair is
// optimistic: no lock is held between preview and execute, so concurrent
// writes can change the affected set. Execute recomputes the count itself
// and returns the rows actually touched; Token only pins the filter
// arguments, never the row set.
type PreviewResult struct {
	AffectedCount int64    `json:"affected_count"`
	AffectedNodes []string `json:"affected_nodes"`
	Token         string   `json:"token"`
}

// ExecuteResult reports the count recomputed at execution time, which may
// differ from the preview when writes landed in between.
type ExecuteResult struct {
	UpdatedCount int64 `json:"updated_count"`
}

// Preview resolves the panelists to nodes, validates the request and counts
// the mutable live events the filter matches.
func (s *PlanService) Preview(ctx context.Context, req ReassignRequest) (*PreviewResult, error) {
	filter, _, err := s.resolveReassignment(ctx, req)
	if err != nil {
		return nil, err
	}

	count, nodes, err := s.planRepo.CountReassignable(ctx, filter)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNothingToReassign
	}

	token, err := s.previewToken(req)
	if err != nil {
		return nil, err
	}

	metrics.ReassignPreviewTotal.Inc()

	return &PreviewResult{AffectedCount: count, AffectedNodes: nodes, Token: token}, nil
}

// Execute re-points every matched event's origin/destination reference from
// the old panelist's node to the new one (or to none). Both update phases run
// in a single transaction. The token, when given, must have been issued by
// Preview for identical arguments.
func (s *PlanService) Execute(ctx context.Context, req ReassignRequest, token string) (*ExecuteResult, error) {
	filter, newNodeID, err := s.resolveReassignment(ctx, req)
	if err != nil {
		return nil, err
	}

	if token != "" {
		if err := s.verifyPreviewToken(req, token); err != nil {
			return nil, err
		}
	}

	updated, err := s.planRepo.ReassignNodes(ctx, filter, newNodeID)
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		return nil, ErrNothingToReassign
	}

	metrics.ReassignExecuteTotal.Inc()
	metrics.ReassignRowsUpdated.Add(float64(updated))

	var target any
	if newNodeID != nil {
		target = *newNodeID
	}
	logger.Info("bulk reassignment executed",
		"client_id", req.ClientID,
		"old_panelist_id", req.OldPanelistID,
		"old_node_id", filter.NodeID,
		"new_node_id", target,
		"updated", updated,
	)

	return &ExecuteResult{UpdatedCount: updated}, nil
}

// resolveReassignment validates the request and maps panelists to nodes.
func (s *PlanService) resolveReassignment(ctx context.Context, req ReassignRequest) (domain.ReassignFilter, *uint, error) {
	var filter domain.ReassignFilter

	if req.DateFrom.After(req.DateTo) {
		return filter, nil, fmt.Errorf("%s to %s: %w",
			req.DateFrom.Format("2006-01-02"), req.DateTo.Format("2006-01-02"), ErrInvalidDateRange)
	}

	oldPanelist, err := s.topologyRepo.FindPanelist(ctx, req.ClientID, req.OldPanelistID)
	if err != nil {
		return filter, nil, err
	}
	if oldPanelist.NodeID == nil {
		return filter, nil, fmt.Errorf("panelist %d (%s): %w", oldPanelist.ID, oldPanelist.Name, ErrNoAssignedNode)
	}

	var newNodeID *uint
	if req.NewPanelistID != nil {
		newPanelist, err := s.topologyRepo.FindPanelist(ctx, req.ClientID, *req.NewPanelistID)
		if err != nil {
			return filter, nil, err
		}
		if newPanelist.NodeID == nil {
			return filter, nil, fmt.Errorf("panelist %d (%s): %w", newPanelist.ID, newPanelist.Name, ErrNoAssignedNode)
		}
		newNodeID = newPanelist.NodeID
	}

	filter = domain.ReassignFilter{
		ClientID: req.ClientID,
		NodeID:   *oldPanelist.NodeID,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	}
	return filter, newNodeID, nil
}

type previewTokenPayload struct {
	ClientID      uint   `json:"client_id"`
	OldPanelistID uint   `json:"old_panelist_id"`
	NewPanelistID *uint  `json:"new_panelist_id"`
	DateFrom      string `json:"date_from"`
	DateTo        string `json:"date_to"`
}

func tokenPayloadFor(req ReassignRequest) previewTokenPayload {
	return previewTokenPayload{
		ClientID:      req.ClientID,
		OldPanelistID: req.OldPanelistID,
		NewPanelistID: req.NewPanelistID,
		DateFrom:      req.DateFrom.Format("2006-01-02"),
		DateTo:        req.DateTo.Format("2006-01-02"),
	}
}

// previewToken wraps the filter arguments into an opaque token.
func (s *PlanService) previewToken(req ReassignRequest) (string, error) {
	payload, err := json.Marshal(tokenPayloadFor(req))
	if err != nil {
		return "", err
	}

	encrypted, err := goshortcute.AESCBCEncrypt(payload, []byte(s.previewTokenKey))
	if err != nil {
		return "", fmt.Errorf("failed to build preview token: %w", err)
	}

	return goshortcute.StringtoBase64Encode(encrypted), nil
}

// verifyPreviewToken decrypts a token and checks it pins the same arguments
// as the execute request.
func (s *PlanService) verifyPreviewToken(req ReassignRequest, token string) error {
	decoded := goshortcute.StringtoBase64Decode(token)
	plain, err := goshortcute.AESCBCDecrypt([]byte(decoded), []byte(s.previewTokenKey))
	if err != nil {
		return ErrInvalidPreviewToken
	}

	var payload previewTokenPayload
	if err := json.Unmarshal([]byte(plain), &payload); err != nil {
		return ErrInvalidPreviewToken
	}

	expected := tokenPayloadFor(req)
	if payload.ClientID != expected.ClientID ||
		payload.OldPanelistID != expected.OldPanelistID ||
		payload.DateFrom != expected.DateFrom ||
		payload.DateTo != expected.DateTo ||
		!uintPtrEqual(payload.NewPanelistID, expected.NewPanelistID) {
		return ErrInvalidPreviewToken
	}
	return nil
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
