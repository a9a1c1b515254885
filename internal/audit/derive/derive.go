// Package derive computes document-type-scoped facts from canonical and raw
// field values against an injectable as-of date.
package derive

import (
	"sort"
	"time"

	"docaudit/internal/audit/canon"
	"docaudit/internal/audit/models"
)

// dateLayout is the textual form documents carry dates in.
const dateLayout = "02/01/2006"

// isoLayout is how derived calendar dates are rendered.
const isoLayout = "2006-01-02"

// identityCardValidity is how long an identity card stays valid after
// issuance.
const identityCardValidityYears = 10

// Facts computes derived facts for the approved document set. Unparsable
// dates degrade to nil facts, never to an error.
func Facts(docs []models.ApprovedDocument) models.DerivedFacts {
	var facts models.DerivedFacts
	for _, doc := range docs {
		if doc.Fields == nil {
			continue
		}
		switch doc.Type {
		case models.DocumentTypeIdentityCard:
			facts.IdentityCard.Present = true
			facts.IdentityCard.ExpiryDate = expiryDate(stringField(doc.Fields, "issued_at"))
		case models.DocumentTypeTranscript:
			facts.Transcript.Present = true
			confirmed, _ := doc.Fields["completion_confirmed"].(bool)
			facts.Transcript.CompletionConfirmed = confirmed
		case models.DocumentTypeResidenceProof:
			facts.Residence.Present = true
			facts.Residence.Titleholder = stringField(doc.Fields, "titleholder_name")
			facts.Residence.TitleholderCanonical = canon.Text(facts.Residence.Titleholder)
			facts.Residence.LinkedNationalID = canon.Identifier(stringField(doc.Fields, "linked_national_id"))
			facts.Residence.IssuedAt = parseDate(stringField(doc.Fields, "issued_at"))
		case models.DocumentTypeExamReport:
			facts.ExamReport.Present = true
			facts.ExamReport.Year = doc.Fields["exam_year"]
		case models.DocumentTypeMilitaryCertificate:
			facts.Military.Present = true
		case models.DocumentTypeBirthCertificate:
			facts.BirthCertificate.Present = true
		case models.DocumentTypeGuardianDocument:
			facts.Guardian.Present = true
		}
	}
	return facts
}

// Titleholders is the set of names entitled to appear on a proof of
// residence: the candidate plus every filiation name found across all
// documents, canonicalized and sorted for determinism.
func Titleholders(candidate models.Candidate, allClaims []models.Claim) []string {
	set := map[string]struct{}{}
	if name := canon.Text(candidate.Name); name != "" {
		set[name] = struct{}{}
	}
	for _, c := range allClaims {
		if c.Kind != models.ClaimFiliationMother && c.Kind != models.ClaimFiliationFather {
			continue
		}
		if c.Canonical != "" {
			set[c.Canonical] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// References computes the calendar anchors for one run from the as-of date:
// today, the nominal program-duration ceiling, and the document-freshness
// floor.
func References(asOf time.Time) models.ReferenceDates {
	y, m, d := asOf.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return models.ReferenceDates{
		Today:          day.Format(isoLayout),
		CourseCeiling:  day.AddDate(4, 0, 0).Format(isoLayout),
		FreshnessFloor: day.AddDate(0, -3, 0).Format(isoLayout),
	}
}

func expiryDate(issuedAt string) *string {
	t, err := time.Parse(dateLayout, canon.Date(issuedAt))
	if err != nil {
		return nil
	}
	iso := t.AddDate(identityCardValidityYears, 0, 0).Format(isoLayout)
	return &iso
}

func parseDate(s string) *string {
	t, err := time.Parse(dateLayout, canon.Date(s))
	if err != nil {
		return nil
	}
	iso := t.Format(isoLayout)
	return &iso
}

func stringField(fields map[string]any, key string) string {
	v, _ := fields[key].(string)
	return v
}
