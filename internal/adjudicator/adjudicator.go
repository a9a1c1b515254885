// Package adjudicator defines the contract between the audit pipeline and
// the service that turns a dossier into findings and a verdict.
//
// The orchestrator treats a violated contract the same as a transport
// failure: the run aborts and is eligible for retry, never recorded as a
// substantive denial.
package adjudicator

import (
	"context"

	"docaudit/internal/audit/models"
	dErrors "docaudit/pkg/domain-errors"
)

// Adjudicator evaluates one dossier against the audit rules.
type Adjudicator interface {
	Adjudicate(ctx context.Context, d *models.Dossier) (*models.AuditOutcome, error)
}

// ValidateOutcome enforces the response contract: a known decision, known
// severities, stable rule ids, and the invariant that a run is approved iff
// no finding carries error severity.
func ValidateOutcome(o *models.AuditOutcome) error {
	if o == nil {
		return dErrors.New(dErrors.CodeUnavailable, "adjudicator returned no outcome")
	}
	if !o.Decision.IsValid() {
		return dErrors.Newf(dErrors.CodeUnavailable, "adjudicator returned unknown decision %q", o.Decision)
	}
	hasError := false
	for _, f := range o.Findings {
		if !f.Severity.IsValid() {
			return dErrors.Newf(dErrors.CodeUnavailable, "adjudicator returned unknown severity %q", f.Severity)
		}
		if f.RuleID == "" {
			return dErrors.New(dErrors.CodeUnavailable, "adjudicator returned a finding without a rule id")
		}
		if f.Severity == models.SeverityError {
			hasError = true
		}
	}
	// The decision must be derivable from the findings: approved iff no
	// error-severity finding exists.
	if hasError && o.Decision == models.DecisionApproved {
		return dErrors.New(dErrors.CodeUnavailable, "adjudicator approved despite error findings")
	}
	if !hasError && o.Decision == models.DecisionPending {
		return dErrors.New(dErrors.CodeUnavailable, "adjudicator returned pending without error findings")
	}
	return nil
}
