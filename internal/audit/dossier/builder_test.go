package dossier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docaudit/internal/audit/models"
)

var asOf = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func sampleDocs() []models.ApprovedDocument {
	return []models.ApprovedDocument{
		{
			ID: 10, Type: models.DocumentTypeIdentityCard, TypeName: "Identity Card",
			Fields: map[string]any{
				"name":        "BRUNO GOMES DA SILVA",
				"national_id": "123.456.789-00",
				"issued_at":   "15/01/2022",
				"filiation":   map[string]any{"mother": "MARIA GOMES DA SILVA"},
			},
		},
		{
			ID: 11, Type: models.DocumentTypeTranscript, TypeName: "School Transcript",
			Fields: map[string]any{
				"student_name":         "BRUNO GOMES DA SILVA",
				"completion_confirmed": true,
			},
		},
		{
			ID: 12, Type: models.DocumentTypeResidenceProof, TypeName: "Proof of Residence",
			Fields: map[string]any{
				"titleholder_name": "MARIA GOMES DA SILVA",
				"issued_at":        "01/08/2026",
			},
		},
	}
}

func TestBuild(t *testing.T) {
	candidate := models.Candidate{ID: 7, Name: "Bruno Gomes da Silva", NationalID: "123.456.789-00"}

	t.Run("aggregates claims, facts and sets", func(t *testing.T) {
		d := Build(candidate, sampleDocs(), asOf)

		assert.Equal(t, "2026-08-31", d.References.Today)
		assert.Equal(t, "2030-08-31", d.References.CourseCeiling)
		assert.Equal(t, "2026-05-31", d.References.FreshnessFloor)

		assert.Equal(t, "bruno gomes da silva", d.Candidate.Name)
		assert.Equal(t, "12345678900", d.Candidate.NationalID)

		require.Len(t, d.ClaimsByKind[models.ClaimName], 2)
		assert.Equal(t, models.DocumentTypeIdentityCard, d.ClaimsByKind[models.ClaimName][0].SourceType,
			"claims keep document order")

		require.NotNil(t, d.Facts.IdentityCard.ExpiryDate)
		assert.Equal(t, "2032-01-15", *d.Facts.IdentityCard.ExpiryDate)
		assert.True(t, d.Facts.Transcript.CompletionConfirmed)

		assert.Equal(t, []string{"bruno gomes da silva", "maria gomes da silva"}, d.ValidTitleholders)
		assert.Equal(t, []string{"identity card", "proof of residence", "school transcript"}, d.DocumentsPresent)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		a := Build(candidate, sampleDocs(), asOf)
		b := Build(candidate, sampleDocs(), asOf)
		assert.Equal(t, a, b)
	})

	t.Run("undecodable documents are excluded entirely", func(t *testing.T) {
		docs := append(sampleDocs(), models.ApprovedDocument{
			ID: 13, Type: models.DocumentTypeExamReport, TypeName: "Exam Report", Fields: nil,
		})
		d := Build(candidate, docs, asOf)
		assert.False(t, d.Facts.ExamReport.Present)
		assert.NotContains(t, d.DocumentsPresent, "exam report")
	})
}
