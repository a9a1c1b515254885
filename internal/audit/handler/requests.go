package handler

// StartRunRequest is the POST /audit/runs payload.
type StartRunRequest struct {
	CaseID int64 `json:"case_id"`
}
