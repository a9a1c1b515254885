// Package store defines the read/write contract against the enrollment
// backend's relational store.
package store

import (
	"context"

	"docaudit/internal/audit/models"
)

// CaseRecord is everything one audit run reads: the registered candidate and
// the documents whose approval status is "approved". Re-fetched per run, no
// caching across runs.
type CaseRecord struct {
	Candidate models.Candidate
	Documents []models.ApprovedDocument
}

// Store is the case read/write contract. Writes must be idempotent:
// re-persisting the same outcome yields the same stored state.
type Store interface {
	// LoadCase returns the case's candidate and approved documents. The
	// document slice may be empty; a missing case is a not_found error.
	LoadCase(ctx context.Context, caseID int64) (*CaseRecord, error)

	// SaveDecision writes the verdict onto the case record, last write wins.
	SaveDecision(ctx context.Context, caseID int64, rec models.DecisionRecord) error

	// RejectDocuments marks documents as rejected with a machine-readable
	// reason payload.
	RejectDocuments(ctx context.Context, rejections []models.DocumentRejection) error
}
