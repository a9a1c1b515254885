package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docaudit/internal/adjudicator"
	"docaudit/internal/audit/dossier"
	"docaudit/internal/audit/models"
)

var asOf = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

var candidate = models.Candidate{ID: 7, Name: "BRUNO GOMES DA SILVA", NationalID: "123.456.789-00"}

func consistentDocs() []models.ApprovedDocument {
	return []models.ApprovedDocument{
		{
			ID: 10, Type: models.DocumentTypeIdentityCard, TypeName: "Identity Card",
			Fields: map[string]any{
				"name":             "BRUNO GOMES DA SILVA",
				"national_id":      "123.456.789-00",
				"date_of_birth":    "02/03/2004",
				"issued_at":        "15/01/2025",
				"general_registry": "12.345.678-9",
				"filiation": map[string]any{
					"mother": "MARIA GOMES DA SILVA",
					"father": "CARLOS DA SILVA",
				},
			},
		},
		{
			ID: 11, Type: models.DocumentTypeTranscript, TypeName: "School Transcript",
			Fields: map[string]any{
				"student_name":         "Bruno Gomes da Silva",
				"completion_confirmed": true,
			},
		},
		{
			ID: 12, Type: models.DocumentTypeResidenceProof, TypeName: "Proof of Residence",
			Fields: map[string]any{
				"titleholder_name":   "MARIA GOMES DA SILVA",
				"linked_national_id": "999.888.777-66",
				"issued_at":          "01/08/2026",
			},
		},
		{
			ID: 13, Type: models.DocumentTypeBirthCertificate, TypeName: "Birth Certificate",
			Fields: map[string]any{
				"registrant_name": "BRUNO GOMES DA SILVA",
				"date_of_birth":   "02/03/2004",
				"filiation": map[string]any{
					"mother": "Maria Gomes da Silva",
					"father": "Carlos da Silva",
				},
			},
		},
		{
			ID: 14, Type: models.DocumentTypeExamReport, TypeName: "Exam Report",
			Fields: map[string]any{
				"participant_name": "BRUNO GOMES DA SILVA",
				"national_id":      "12345678900",
				"exam_year":        float64(2025),
			},
		},
		{
			ID: 15, Type: models.DocumentTypeMilitaryCertificate, TypeName: "Military Certificate",
			Fields: map[string]any{
				"name":        "BRUNO GOMES DA SILVA",
				"national_id": "123.456.789-00",
			},
		},
	}
}

func findingsByRule(o *models.AuditOutcome, rule string) []models.Finding {
	var out []models.Finding
	for _, f := range o.Findings {
		if f.RuleID == rule {
			out = append(out, f)
		}
	}
	return out
}

func adjudicate(t *testing.T, docs []models.ApprovedDocument) *models.AuditOutcome {
	t.Helper()
	d := dossier.Build(candidate, docs, asOf)
	outcome, err := New().Adjudicate(context.Background(), d)
	require.NoError(t, err)
	require.NoError(t, adjudicator.ValidateOutcome(outcome), "engine must honor its own contract")
	return outcome
}

func TestConsistentDossierApproves(t *testing.T) {
	outcome := adjudicate(t, consistentDocs())

	assert.Equal(t, models.DecisionApproved, outcome.Decision)
	for _, f := range outcome.Findings {
		assert.NotEqual(t, models.SeverityError, f.Severity, "unexpected error finding: %+v", f)
	}

	// The mother holds the residence proof and is in the titleholder set.
	th := findingsByRule(outcome, RuleResidenceTitleholder)
	require.Len(t, th, 1)
	assert.Equal(t, models.SeverityOK, th[0].Severity)
}

func TestNationalIDMismatchIsPending(t *testing.T) {
	docs := consistentDocs()
	docs[4].Fields["national_id"] = "987.654.321-00" // exam report digits differ

	outcome := adjudicate(t, docs)

	assert.Equal(t, models.DecisionPending, outcome.Decision)
	found := findingsByRule(outcome, RuleNationalIDConsistency)
	require.NotEmpty(t, found)
	assert.Equal(t, models.SeverityError, found[0].Severity)
	assert.Contains(t, found[0].Documents, "Exam Report")
	assert.Contains(t, outcome.Explanation, "national id")
}

func TestResidenceLinkedIDDoesNotTriggerMismatch(t *testing.T) {
	// The residence proof's linked id belongs to the mother; it must not
	// count as an identity mismatch.
	outcome := adjudicate(t, consistentDocs())
	for _, f := range findingsByRule(outcome, RuleNationalIDConsistency) {
		assert.Equal(t, models.SeverityOK, f.Severity)
	}
}

func TestUnparsableIssuanceDegradesToWarning(t *testing.T) {
	docs := consistentDocs()
	docs[0].Fields["issued_at"] = "someday"

	outcome := adjudicate(t, docs)

	assert.Equal(t, models.DecisionApproved, outcome.Decision)
	found := findingsByRule(outcome, RuleIDCardExpired)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityWarning, found[0].Severity)
}

func TestExpiredIDCardIsPending(t *testing.T) {
	docs := consistentDocs()
	docs[0].Fields["issued_at"] = "15/01/2010" // expired 2020

	outcome := adjudicate(t, docs)

	assert.Equal(t, models.DecisionPending, outcome.Decision)
	found := findingsByRule(outcome, RuleIDCardExpired)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityError, found[0].Severity)
}

func TestIDCardExpiringBeforeProgramEndWarns(t *testing.T) {
	docs := consistentDocs()
	docs[0].Fields["issued_at"] = "15/01/2018" // expires 2028, ceiling 2030

	outcome := adjudicate(t, docs)

	assert.Equal(t, models.DecisionApproved, outcome.Decision)
	found := findingsByRule(outcome, RuleIDCardExpiring)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityWarning, found[0].Severity)
}

func TestStaleResidenceProofIsPending(t *testing.T) {
	docs := consistentDocs()
	docs[2].Fields["issued_at"] = "01/01/2026" // older than the 3-month floor

	outcome := adjudicate(t, docs)

	assert.Equal(t, models.DecisionPending, outcome.Decision)
	found := findingsByRule(outcome, RuleResidenceProofStale)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityError, found[0].Severity)
}

func TestThirdPartyTitleholder(t *testing.T) {
	t.Run("error without guardian document", func(t *testing.T) {
		docs := consistentDocs()
		docs[2].Fields["titleholder_name"] = "JOANA PEREIRA"

		outcome := adjudicate(t, docs)

		assert.Equal(t, models.DecisionPending, outcome.Decision)
		found := findingsByRule(outcome, RuleResidenceTitleholder)
		require.Len(t, found, 1)
		assert.Equal(t, models.SeverityError, found[0].Severity)
	})

	t.Run("warning when a guardian document is present", func(t *testing.T) {
		docs := consistentDocs()
		docs[2].Fields["titleholder_name"] = "JOANA PEREIRA"
		docs = append(docs, models.ApprovedDocument{
			ID: 16, Type: models.DocumentTypeGuardianDocument, TypeName: "Guardian Document",
			Fields: map[string]any{},
		})

		outcome := adjudicate(t, docs)

		assert.Equal(t, models.DecisionApproved, outcome.Decision)
		found := findingsByRule(outcome, RuleResidenceTitleholder)
		require.Len(t, found, 1)
		assert.Equal(t, models.SeverityWarning, found[0].Severity)
	})
}

func TestBirthDateFormatsCompareByDay(t *testing.T) {
	docs := consistentDocs()
	docs[3].Fields["date_of_birth"] = "02/03/2004" // same day as the id card

	outcome := adjudicate(t, docs)
	found := findingsByRule(outcome, RuleBirthDateConsistency)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityOK, found[0].Severity)

	docs[3].Fields["date_of_birth"] = "03/03/2004"
	outcome = adjudicate(t, docs)
	found = findingsByRule(outcome, RuleBirthDateConsistency)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityError, found[0].Severity)
}

func TestFiliationMismatchIsPending(t *testing.T) {
	docs := consistentDocs()
	docs[3].Fields["filiation"] = map[string]any{
		"mother": "OUTRA PESSOA",
		"father": "Carlos da Silva",
	}

	outcome := adjudicate(t, docs)

	assert.Equal(t, models.DecisionPending, outcome.Decision)
	found := findingsByRule(outcome, RuleFiliationConsistency)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityError, found[0].Severity)
	assert.Contains(t, found[0].Detail, "mother")
}

func TestDeterministicForIdenticalDossier(t *testing.T) {
	d := dossier.Build(candidate, consistentDocs(), asOf)
	a, err := New().Adjudicate(context.Background(), d)
	require.NoError(t, err)
	b, err := New().Adjudicate(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
