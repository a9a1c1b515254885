// Package postgres persists cases against the enrollment backend's schema.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/store"
	dErrors "docaudit/pkg/domain-errors"
)

// Store reads candidates and approved documents and writes audit decisions.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed case store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) LoadCase(ctx context.Context, caseID int64) (*store.CaseRecord, error) {
	var rec store.CaseRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.registered_name, c.national_id
		FROM enrollment_cases ec
		JOIN candidates c ON c.id = ec.candidate_id
		WHERE ec.id = $1
	`, caseID).Scan(&rec.Candidate.ID, &rec.Candidate.Name, &rec.Candidate.NationalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "case %d not found", caseID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load candidate")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.type_id, dt.name, d.extracted_fields
		FROM documents d
		JOIN document_types dt ON dt.id = d.type_id
		WHERE d.candidate_id = $1 AND d.status = 'approved'
		ORDER BY d.id
	`, rec.Candidate.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load approved documents")
	}
	defer rows.Close()

	for rows.Next() {
		var doc models.ApprovedDocument
		var typeID int
		var fields []byte
		if err := rows.Scan(&doc.ID, &typeID, &doc.TypeName, &fields); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "scan document row")
		}
		doc.Type = models.DocumentType(typeID)
		// A payload that fails to decode leaves Fields nil; the pipeline
		// skips such documents instead of aborting the run.
		if len(fields) > 0 {
			var decoded map[string]any
			if err := json.Unmarshal(fields, &decoded); err == nil {
				doc.Fields = decoded
			}
		}
		rec.Documents = append(rec.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "iterate document rows")
	}
	return &rec, nil
}

func (s *Store) SaveDecision(ctx context.Context, caseID int64, rec models.DecisionRecord) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE enrollment_cases
		SET review_status = $1, review_note = $2, decided_at = $3
		WHERE id = $4
	`, string(rec.Decision), rec.Explanation, rec.DecidedAt, caseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "save decision")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "save decision")
	}
	if affected == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "case %d not found", caseID)
	}
	return nil
}

func (s *Store) RejectDocuments(ctx context.Context, rejections []models.DocumentRejection) error {
	if len(rejections) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "begin rejection tx")
	}
	defer tx.Rollback()

	for _, r := range rejections {
		payload, err := json.Marshal(map[string]string{"reason": r.Reason})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode rejection reason")
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents
			SET status = 'rejected', error_reason = $1
			WHERE id = $2
		`, payload, r.DocumentID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "reject document")
		}
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "commit rejections")
	}
	return nil
}
