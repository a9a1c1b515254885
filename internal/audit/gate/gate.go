// Package gate decides whether the mandatory document prerequisites are met
// before harmonization runs.
package gate

import (
	"strings"

	"docaudit/internal/audit/models"
)

// Result is the gate verdict. Message enumerates every missing prerequisite
// when Met is false.
type Result struct {
	Met     bool
	Message string
}

// Check inspects the raw approved document set. The identity card must be
// present, and the transcript must be present with its completion flag
// literally true. Every other document type is optional here.
func Check(docs []models.ApprovedDocument) Result {
	if len(docs) == 0 {
		return Result{Met: false, Message: "no approved documents"}
	}

	hasIdentityCard := false
	hasCompletedTranscript := false
	for _, doc := range docs {
		switch doc.Type {
		case models.DocumentTypeIdentityCard:
			hasIdentityCard = true
		case models.DocumentTypeTranscript:
			if confirmed, ok := doc.Fields["completion_confirmed"].(bool); ok && confirmed {
				hasCompletedTranscript = true
			}
		}
	}

	if hasIdentityCard && hasCompletedTranscript {
		return Result{Met: true}
	}

	// Enumerate every missing prerequisite, in fixed order.
	var missing []string
	if !hasIdentityCard {
		missing = append(missing, "identity card missing")
	}
	if !hasCompletedTranscript {
		missing = append(missing, "completed transcript missing")
	}
	return Result{Met: false, Message: strings.Join(missing, "; ")}
}
