// Package claims maps one document's raw field set into typed claims.
//
// Extraction is total over any well-formed document: unknown or absent
// fields never fail, they simply produce no claim.
package claims

import (
	"docaudit/internal/audit/canon"
	"docaudit/internal/audit/models"
)

// genericNameKeys are scanned in order when no document-type-specific key
// applies.
var genericNameKeys = []string{"name", "student_name", "participant_name", "registrant_name"}

// preferredNameKey holds the document-type-specific name key, tried before
// the generic scan.
var preferredNameKey = map[models.DocumentType]string{
	models.DocumentTypeTranscript:       "student_name",
	models.DocumentTypeExamReport:       "participant_name",
	models.DocumentTypeBirthCertificate: "registrant_name",
}

// idNumberKeys are the known spellings for the identity-card register number.
var idNumberKeys = []string{"general_registry", "registry_number", "id_number"}

// Extract pulls zero or more claims from one approved document. A document
// whose Fields failed to decode yields no claims.
func Extract(doc models.ApprovedDocument) []models.Claim {
	if doc.Fields == nil {
		return nil
	}

	var out []models.Claim
	add := func(kind models.ClaimKind, raw, canonical string) {
		out = append(out, models.Claim{
			Kind:       kind,
			Raw:        raw,
			Canonical:  canonical,
			SourceType: doc.Type,
			SourceName: doc.TypeName,
		})
	}

	if name := nameField(doc); name != "" {
		add(models.ClaimName, name, canon.Text(name))
	}

	if id := stringField(doc.Fields, "national_id"); id != "" {
		add(models.ClaimNationalID, id, canon.Identifier(id))
	} else if doc.Type == models.DocumentTypeResidenceProof {
		// The linked id on a residence proof may belong to a third party;
		// it feeds the titleholder facts, and the adjudicator excludes it
		// from identity cross-checks by source type.
		if id := stringField(doc.Fields, "linked_national_id"); id != "" {
			add(models.ClaimNationalID, id, canon.Identifier(id))
		}
	}

	if dob := stringField(doc.Fields, "date_of_birth"); dob != "" {
		add(models.ClaimDateOfBirth, dob, canon.Date(dob))
	}

	if filiation, ok := doc.Fields["filiation"].(map[string]any); ok {
		if mother := stringField(filiation, "mother"); mother != "" {
			add(models.ClaimFiliationMother, mother, canon.Text(mother))
		}
		if father := stringField(filiation, "father"); father != "" {
			add(models.ClaimFiliationFather, father, canon.Text(father))
		}
	}

	for _, key := range idNumberKeys {
		if num := stringField(doc.Fields, key); num != "" {
			add(models.ClaimIDNumber, num, canon.Identifier(num))
			break
		}
	}

	return out
}

func nameField(doc models.ApprovedDocument) string {
	if key, ok := preferredNameKey[doc.Type]; ok {
		if v := stringField(doc.Fields, key); v != "" {
			return v
		}
	}
	for _, key := range genericNameKeys {
		if v := stringField(doc.Fields, key); v != "" {
			return v
		}
	}
	return ""
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key].(string)
	if !ok {
		return ""
	}
	return v
}
