// Package memory provides an in-memory case store for tests and local runs.
package memory

import (
	"context"
	"sync"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/store"
	dErrors "docaudit/pkg/domain-errors"
)

// Store keeps cases in maps guarded by a RWMutex.
type Store struct {
	mu         sync.RWMutex
	cases      map[int64]*store.CaseRecord
	decisions  map[int64]models.DecisionRecord
	rejections map[int64]string
}

func New() *Store {
	return &Store{
		cases:      make(map[int64]*store.CaseRecord),
		decisions:  make(map[int64]models.DecisionRecord),
		rejections: make(map[int64]string),
	}
}

// SeedCase registers a case for subsequent LoadCase calls.
func (s *Store) SeedCase(caseID int64, rec store.CaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[caseID] = &rec
}

func (s *Store) LoadCase(_ context.Context, caseID int64) (*store.CaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.cases[caseID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "case %d not found", caseID)
	}
	// Copy so callers cannot mutate the stored record.
	out := &store.CaseRecord{
		Candidate: rec.Candidate,
		Documents: append([]models.ApprovedDocument(nil), rec.Documents...),
	}
	return out, nil
}

func (s *Store) SaveDecision(_ context.Context, caseID int64, rec models.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[caseID]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "case %d not found", caseID)
	}
	s.decisions[caseID] = rec
	return nil
}

func (s *Store) RejectDocuments(_ context.Context, rejections []models.DocumentRejection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rejections {
		s.rejections[r.DocumentID] = r.Reason
	}
	return nil
}

// Decision returns the persisted decision for a case, if any.
func (s *Store) Decision(caseID int64) (models.DecisionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.decisions[caseID]
	return rec, ok
}

// RejectionReason returns the rejection reason stored for a document, if any.
func (s *Store) RejectionReason(documentID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reason, ok := s.rejections[documentID]
	return reason, ok
}
