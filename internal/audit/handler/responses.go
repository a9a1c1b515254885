package handler

import (
	"time"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/orchestrator"
)

// StartRunResponse is the POST /audit/runs response body.
type StartRunResponse struct {
	RunID       string                     `json:"run_id"`
	CaseID      int64                      `json:"case_id"`
	Decision    models.Decision            `json:"decision"`
	Explanation string                     `json:"explanation"`
	Findings    []models.Finding           `json:"findings,omitempty"`
	Rejected    []models.DocumentRejection `json:"rejected_documents,omitempty"`
	DecidedAt   time.Time                  `json:"decided_at"`
}

// FromResult maps an orchestrator result to the transport shape.
func FromResult(res *orchestrator.RunResult) StartRunResponse {
	return StartRunResponse{
		RunID:       res.RunID,
		CaseID:      res.CaseID,
		Decision:    res.Decision,
		Explanation: res.Explanation,
		Findings:    res.Findings,
		Rejected:    res.Rejected,
		DecidedAt:   res.DecidedAt,
	}
}
