// Package dossier aggregates claims, derived facts, and the registered
// identity into the canonical structure submitted for adjudication.
package dossier

import (
	"sort"
	"time"

	"docaudit/internal/audit/canon"
	"docaudit/internal/audit/claims"
	"docaudit/internal/audit/derive"
	"docaudit/internal/audit/models"
)

// Build is a pure aggregation: the same document set and as-of date always
// produce a structurally identical dossier. Documents with undecodable
// fields contribute nothing.
func Build(candidate models.Candidate, docs []models.ApprovedDocument, asOf time.Time) *models.Dossier {
	var all []models.Claim
	byKind := make(map[models.ClaimKind][]models.Claim)
	present := map[string]struct{}{}

	for _, doc := range docs {
		if doc.Fields == nil {
			continue
		}
		present[canon.Text(doc.TypeName)] = struct{}{}
		for _, c := range claims.Extract(doc) {
			all = append(all, c)
			byKind[c.Kind] = append(byKind[c.Kind], c)
		}
	}

	names := make([]string, 0, len(present))
	for name := range present {
		names = append(names, name)
	}
	sort.Strings(names)

	return &models.Dossier{
		References: derive.References(asOf),
		Candidate: models.Candidate{
			ID:         candidate.ID,
			Name:       canon.Text(candidate.Name),
			NationalID: canon.Identifier(candidate.NationalID),
		},
		ClaimsByKind:      byKind,
		Facts:             derive.Facts(docs),
		ValidTitleholders: derive.Titleholders(candidate, all),
		DocumentsPresent:  names,
	}
}
