// Package rules is the deterministic adjudicator. It applies the audit rule
// set to a dossier and derives the decision from the findings, making the
// verdict reproducible for identical input.
package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"docaudit/internal/audit/models"
)

// Stable rule identifiers referenced by findings and explanations.
const (
	RuleNameConsistency       = "name_consistency"
	RuleNationalIDConsistency = "national_id_consistency"
	RuleIDNumberConsistency   = "id_number_consistency"
	RuleBirthDateConsistency  = "birth_date_consistency"
	RuleFiliationConsistency  = "filiation_consistency"
	RuleIDCardExpired         = "id_card_expired"
	RuleIDCardExpiring        = "id_card_expiring"
	RuleResidenceProofStale   = "residence_proof_stale"
	RuleResidenceTitleholder  = "residence_titleholder"
	RuleTranscriptCompletion  = "transcript_completion"
	RuleMandatoryDocuments    = "mandatory_documents"
)

const isoLayout = "2006-01-02"

// Engine is stateless; one instance serves concurrent runs.
type Engine struct{}

// New constructs the deterministic rule engine.
func New() *Engine {
	return &Engine{}
}

// Adjudicate never fails for dossier content: malformed values degrade to
// findings, so the only error paths are programming mistakes upstream.
func (e *Engine) Adjudicate(_ context.Context, d *models.Dossier) (*models.AuditOutcome, error) {
	var findings []models.Finding
	add := func(f models.Finding) { findings = append(findings, f) }

	e.checkNames(d, add)
	e.checkNationalIDs(d, add)
	e.checkIDNumbers(d, add)
	e.checkBirthDates(d, add)
	e.checkFiliation(d, add)
	e.checkIDCardExpiry(d, add)
	e.checkResidenceFreshness(d, add)
	e.checkResidenceTitleholder(d, add)
	e.checkTranscriptCompletion(d, add)
	e.checkMandatoryDocuments(d, add)

	outcome := &models.AuditOutcome{Findings: findings}
	outcome.Decision, outcome.Explanation = decide(findings)
	return outcome, nil
}

func decide(findings []models.Finding) (models.Decision, string) {
	var errs, warns []string
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityError:
			errs = append(errs, f.Detail)
		case models.SeverityWarning:
			warns = append(warns, f.Detail)
		}
	}
	if len(errs) > 0 {
		return models.DecisionPending, strings.Join(errs, "; ")
	}
	if len(warns) > 0 {
		return models.DecisionApproved, "Approved with warnings: " + strings.Join(warns, "; ")
	}
	return models.DecisionApproved, "Documents consistent and pre-approved."
}

func (e *Engine) checkNames(d *models.Dossier, add func(models.Finding)) {
	claims := d.ClaimsByKind[models.ClaimName]
	if len(claims) == 0 {
		return
	}
	mismatched := false
	for _, c := range claims {
		if c.Canonical == d.Candidate.Name {
			continue
		}
		mismatched = true
		add(models.Finding{
			Severity:  models.SeverityError,
			RuleID:    RuleNameConsistency,
			Detail:    fmt.Sprintf("name on %s (%q) does not match registered name (%q)", c.SourceName, c.Raw, d.Candidate.Name),
			Documents: []string{c.SourceName},
		})
	}
	if !mismatched {
		add(models.Finding{
			Severity: models.SeverityOK,
			RuleID:   RuleNameConsistency,
			Detail:   fmt.Sprintf("registered name matches all %d documents carrying a name", len(claims)),
		})
	}
}

func (e *Engine) checkNationalIDs(d *models.Dossier, add func(models.Finding)) {
	registered := d.Candidate.NationalID
	if registered == "" {
		return
	}
	compared := 0
	mismatched := false
	for _, c := range d.ClaimsByKind[models.ClaimNationalID] {
		// Residence-proof ids may legitimately belong to a third party and
		// are excluded from identity cross-checks.
		if c.SourceType == models.DocumentTypeResidenceProof {
			continue
		}
		if c.Canonical == "" {
			continue
		}
		compared++
		if c.Canonical != registered {
			mismatched = true
			add(models.Finding{
				Severity:  models.SeverityError,
				RuleID:    RuleNationalIDConsistency,
				Detail:    fmt.Sprintf("national id on %s (%s) differs from registration (%s)", c.SourceName, c.Canonical, registered),
				Documents: []string{c.SourceName},
			})
		}
	}
	if compared > 0 && !mismatched {
		add(models.Finding{
			Severity: models.SeverityOK,
			RuleID:   RuleNationalIDConsistency,
			Detail:   "national id consistent across official documents",
		})
	}
}

func (e *Engine) checkIDNumbers(d *models.Dossier, add func(models.Finding)) {
	values, sources := distinct(d.ClaimsByKind[models.ClaimIDNumber], func(c models.Claim) string { return c.Canonical })
	if len(sources) < 2 {
		return
	}
	if len(values) > 1 {
		add(models.Finding{
			Severity:  models.SeverityError,
			RuleID:    RuleIDNumberConsistency,
			Detail:    fmt.Sprintf("identity register numbers disagree across documents: %s", strings.Join(values, " vs ")),
			Documents: sources,
		})
		return
	}
	add(models.Finding{
		Severity: models.SeverityOK,
		RuleID:   RuleIDNumberConsistency,
		Detail:   "identity register number consistent across documents",
	})
}

func (e *Engine) checkBirthDates(d *models.Dossier, add func(models.Finding)) {
	values, sources := distinct(d.ClaimsByKind[models.ClaimDateOfBirth], normalizeDate)
	if len(sources) < 2 {
		return
	}
	if len(values) > 1 {
		add(models.Finding{
			Severity:  models.SeverityError,
			RuleID:    RuleBirthDateConsistency,
			Detail:    fmt.Sprintf("birth dates disagree across documents: %s", strings.Join(values, " vs ")),
			Documents: sources,
		})
		return
	}
	add(models.Finding{
		Severity: models.SeverityOK,
		RuleID:   RuleBirthDateConsistency,
		Detail:   "birth date consistent across documents",
	})
}

func (e *Engine) checkFiliation(d *models.Dossier, add func(models.Finding)) {
	conflict := false
	consistentPairs := false
	for _, role := range []struct {
		kind  models.ClaimKind
		label string
	}{
		{models.ClaimFiliationMother, "mother"},
		{models.ClaimFiliationFather, "father"},
	} {
		values, sources := distinct(d.ClaimsByKind[role.kind], func(c models.Claim) string { return c.Canonical })
		if len(sources) < 2 {
			continue
		}
		if len(values) > 1 {
			conflict = true
			add(models.Finding{
				Severity:  models.SeverityError,
				RuleID:    RuleFiliationConsistency,
				Detail:    fmt.Sprintf("%s's name disagrees across documents: %s", role.label, strings.Join(values, " vs ")),
				Documents: sources,
			})
			continue
		}
		consistentPairs = true
	}
	if consistentPairs && !conflict {
		add(models.Finding{
			Severity: models.SeverityOK,
			RuleID:   RuleFiliationConsistency,
			Detail:   "filiation consistent across documents",
		})
	}
}

func (e *Engine) checkIDCardExpiry(d *models.Dossier, add func(models.Finding)) {
	card := d.Facts.IdentityCard
	if !card.Present {
		return
	}
	docRef := []string{models.DocumentTypeIdentityCard.String()}
	if card.ExpiryDate == nil {
		add(models.Finding{
			Severity:  models.SeverityWarning,
			RuleID:    RuleIDCardExpired,
			Detail:    "identity card issuance date is missing or unparsable; expiry could not be derived",
			Documents: docRef,
		})
		return
	}
	expiry, ok := parseISO(*card.ExpiryDate)
	today, okToday := parseISO(d.References.Today)
	if !ok || !okToday {
		return
	}
	if expiry.Before(today) {
		add(models.Finding{
			Severity:  models.SeverityError,
			RuleID:    RuleIDCardExpired,
			Detail:    fmt.Sprintf("identity card expired on %s", *card.ExpiryDate),
			Documents: docRef,
		})
		return
	}
	if ceiling, ok := parseISO(d.References.CourseCeiling); ok && expiry.Before(ceiling) {
		add(models.Finding{
			Severity:  models.SeverityWarning,
			RuleID:    RuleIDCardExpiring,
			Detail:    fmt.Sprintf("identity card expires on %s, before the nominal end of the program", *card.ExpiryDate),
			Documents: docRef,
		})
		return
	}
	add(models.Finding{
		Severity: models.SeverityOK,
		RuleID:   RuleIDCardExpired,
		Detail:   fmt.Sprintf("identity card valid until %s", *card.ExpiryDate),
	})
}

func (e *Engine) checkResidenceFreshness(d *models.Dossier, add func(models.Finding)) {
	res := d.Facts.Residence
	if !res.Present {
		return
	}
	docRef := []string{models.DocumentTypeResidenceProof.String()}
	if res.IssuedAt == nil {
		add(models.Finding{
			Severity:  models.SeverityWarning,
			RuleID:    RuleResidenceProofStale,
			Detail:    "proof of residence issuance date is missing or unparsable",
			Documents: docRef,
		})
		return
	}
	issued, ok := parseISO(*res.IssuedAt)
	floor, okFloor := parseISO(d.References.FreshnessFloor)
	if !ok || !okFloor {
		return
	}
	if issued.Before(floor) {
		add(models.Finding{
			Severity:  models.SeverityError,
			RuleID:    RuleResidenceProofStale,
			Detail:    fmt.Sprintf("proof of residence issued on %s is older than three months", *res.IssuedAt),
			Documents: docRef,
		})
		return
	}
	add(models.Finding{
		Severity: models.SeverityOK,
		RuleID:   RuleResidenceProofStale,
		Detail:   "proof of residence is recent",
	})
}

func (e *Engine) checkResidenceTitleholder(d *models.Dossier, add func(models.Finding)) {
	res := d.Facts.Residence
	if !res.Present {
		return
	}
	docRef := []string{models.DocumentTypeResidenceProof.String()}
	if res.TitleholderCanonical == "" {
		add(models.Finding{
			Severity:  models.SeverityWarning,
			RuleID:    RuleResidenceTitleholder,
			Detail:    "proof of residence has no titleholder name",
			Documents: docRef,
		})
		return
	}
	for _, name := range d.ValidTitleholders {
		if name == res.TitleholderCanonical {
			add(models.Finding{
				Severity: models.SeverityOK,
				RuleID:   RuleResidenceTitleholder,
				Detail:   fmt.Sprintf("proof of residence titleholder %q is the candidate or a declared parent", res.Titleholder),
			})
			return
		}
	}
	if d.Facts.Guardian.Present {
		// A guardian document may justify the third-party titleholder;
		// leave the link for human review.
		add(models.Finding{
			Severity:  models.SeverityWarning,
			RuleID:    RuleResidenceTitleholder,
			Detail:    fmt.Sprintf("proof of residence titleholder %q is not the candidate or a declared parent; a guardian document is present and needs human review", res.Titleholder),
			Documents: docRef,
		})
		return
	}
	add(models.Finding{
		Severity:  models.SeverityError,
		RuleID:    RuleResidenceTitleholder,
		Detail:    fmt.Sprintf("proof of residence titleholder %q is not the candidate or a declared parent", res.Titleholder),
		Documents: docRef,
	})
}

func (e *Engine) checkTranscriptCompletion(d *models.Dossier, add func(models.Finding)) {
	tr := d.Facts.Transcript
	if !tr.Present {
		return
	}
	if tr.CompletionConfirmed {
		add(models.Finding{
			Severity: models.SeverityOK,
			RuleID:   RuleTranscriptCompletion,
			Detail:   "transcript confirms completion",
		})
		return
	}
	add(models.Finding{
		Severity:  models.SeverityError,
		RuleID:    RuleTranscriptCompletion,
		Detail:    "transcript does not confirm completion",
		Documents: []string{models.DocumentTypeTranscript.String()},
	})
}

func (e *Engine) checkMandatoryDocuments(d *models.Dossier, add func(models.Finding)) {
	var missing []string
	if !d.Facts.IdentityCard.Present {
		missing = append(missing, "identity card")
	}
	if !d.Facts.Transcript.Present {
		missing = append(missing, "transcript")
	}
	if len(missing) > 0 {
		add(models.Finding{
			Severity: models.SeverityError,
			RuleID:   RuleMandatoryDocuments,
			Detail:   "mandatory documents missing: " + strings.Join(missing, ", "),
		})
		return
	}
	add(models.Finding{
		Severity: models.SeverityOK,
		RuleID:   RuleMandatoryDocuments,
		Detail:   "mandatory documents present",
	})
}

// distinct returns the sorted set of non-empty normalized values and the
// contributing source document names, both deterministic.
func distinct(claims []models.Claim, normalize func(models.Claim) string) (values, sources []string) {
	valueSet := map[string]struct{}{}
	sourceSet := map[string]struct{}{}
	for _, c := range claims {
		v := normalize(c)
		if v == "" {
			continue
		}
		valueSet[v] = struct{}{}
		sourceSet[c.SourceName] = struct{}{}
	}
	for v := range valueSet {
		values = append(values, v)
	}
	for s := range sourceSet {
		sources = append(sources, s)
	}
	sort.Strings(values)
	sort.Strings(sources)
	return values, sources
}

// normalizeDate maps textual DD/MM/YYYY dates onto ISO form so the same day
// written differently still compares equal; unparsable values compare
// literally.
func normalizeDate(c models.Claim) string {
	t, err := time.Parse("02/01/2006", c.Canonical)
	if err != nil {
		return c.Canonical
	}
	return t.Format(isoLayout)
}

func parseISO(s string) (time.Time, bool) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
