//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docaudit/internal/audit/models"
	auditpg "docaudit/internal/audit/store/postgres"
	dErrors "docaudit/pkg/domain-errors"
	"docaudit/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpg.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), auditpg.Schema)
	s.store = auditpg.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"documents", "enrollment_cases", "candidates")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedCase() (caseID, candidateID, docID int64) {
	ctx := context.Background()
	err := s.postgres.DB.QueryRowContext(ctx, `
		INSERT INTO candidates (registered_name, national_id)
		VALUES ('BRUNO GOMES DA SILVA', '123.456.789-00') RETURNING id
	`).Scan(&candidateID)
	s.Require().NoError(err)

	err = s.postgres.DB.QueryRowContext(ctx, `
		INSERT INTO enrollment_cases (candidate_id) VALUES ($1) RETURNING id
	`, candidateID).Scan(&caseID)
	s.Require().NoError(err)

	err = s.postgres.DB.QueryRowContext(ctx, `
		INSERT INTO documents (candidate_id, type_id, status, extracted_fields)
		VALUES ($1, 1, 'approved', '{"name":"BRUNO GOMES DA SILVA","issued_at":"15/01/2022"}')
		RETURNING id
	`, candidateID).Scan(&docID)
	s.Require().NoError(err)

	// A pending document must not be loaded.
	_, err = s.postgres.DB.ExecContext(ctx, `
		INSERT INTO documents (candidate_id, type_id, status, extracted_fields)
		VALUES ($1, 3, 'pending', '{}')
	`, candidateID)
	s.Require().NoError(err)
	return
}

func (s *PostgresStoreSuite) TestLoadCase() {
	ctx := context.Background()
	caseID, candidateID, docID := s.seedCase()

	rec, err := s.store.LoadCase(ctx, caseID)
	s.Require().NoError(err)
	s.Equal(candidateID, rec.Candidate.ID)
	s.Equal("BRUNO GOMES DA SILVA", rec.Candidate.Name)
	s.Require().Len(rec.Documents, 1, "only approved documents load")
	s.Equal(docID, rec.Documents[0].ID)
	s.Equal(models.DocumentTypeIdentityCard, rec.Documents[0].Type)
	s.Equal("Identity Card", rec.Documents[0].TypeName)
	s.Equal("15/01/2022", rec.Documents[0].Fields["issued_at"])
}

func (s *PostgresStoreSuite) TestLoadCaseNotFound() {
	_, err := s.store.LoadCase(context.Background(), 424242)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *PostgresStoreSuite) TestSaveDecisionIdempotent() {
	ctx := context.Background()
	caseID, _, _ := s.seedCase()

	rec := models.DecisionRecord{
		Decision:    models.DecisionPending,
		Explanation: "national id mismatch",
		DecidedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.store.SaveDecision(ctx, caseID, rec))
	s.Require().NoError(s.store.SaveDecision(ctx, caseID, rec))

	var status, note string
	err := s.postgres.DB.QueryRowContext(ctx, `
		SELECT review_status, review_note FROM enrollment_cases WHERE id = $1
	`, caseID).Scan(&status, &note)
	s.Require().NoError(err)
	s.Equal("pending", status)
	s.Equal("national id mismatch", note)
}

func (s *PostgresStoreSuite) TestRejectDocuments() {
	ctx := context.Background()
	_, _, docID := s.seedCase()

	err := s.store.RejectDocuments(ctx, []models.DocumentRejection{
		{DocumentID: docID, Reason: "national id mismatch"},
	})
	s.Require().NoError(err)

	var status string
	var reason []byte
	err = s.postgres.DB.QueryRowContext(ctx, `
		SELECT status, error_reason FROM documents WHERE id = $1
	`, docID).Scan(&status, &reason)
	s.Require().NoError(err)
	s.Equal("rejected", status)
	s.JSONEq(`{"reason":"national id mismatch"}`, string(reason))
}
