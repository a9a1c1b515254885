// Package models holds the data records exchanged by the audit pipeline.
//
// Everything here is plain data: records are built fresh for one audit run
// and discarded after persistence. The Dossier is a value object and must
// not be mutated after the builder returns it.
package models

import "time"

// DocumentType enumerates the document kinds the pipeline understands.
// The numeric values mirror the enrollment backend's document_type table.
type DocumentType int

const (
	DocumentTypeUnknown             DocumentType = 0
	DocumentTypeIdentityCard        DocumentType = 1
	DocumentTypeTranscript          DocumentType = 3
	DocumentTypeResidenceProof      DocumentType = 4
	DocumentTypeGuardianDocument    DocumentType = 5
	DocumentTypeMilitaryCertificate DocumentType = 6
	DocumentTypeBirthCertificate    DocumentType = 7
	DocumentTypeExamReport          DocumentType = 8
)

// String returns a stable machine name for the type.
func (t DocumentType) String() string {
	switch t {
	case DocumentTypeIdentityCard:
		return "identity_card"
	case DocumentTypeTranscript:
		return "transcript"
	case DocumentTypeResidenceProof:
		return "residence_proof"
	case DocumentTypeGuardianDocument:
		return "guardian_document"
	case DocumentTypeMilitaryCertificate:
		return "military_certificate"
	case DocumentTypeBirthCertificate:
		return "birth_certificate"
	case DocumentTypeExamReport:
		return "exam_report"
	default:
		return "unknown"
	}
}

// Candidate is the registered identity an audit run checks documents against.
type Candidate struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
}

// ApprovedDocument is one approved document with its extracted field set.
// Fields is nil when the stored extraction payload could not be decoded;
// such documents are skipped during harmonization, never fatal.
type ApprovedDocument struct {
	ID       int64          `json:"id"`
	Type     DocumentType   `json:"type_id"`
	TypeName string         `json:"type_name"`
	Fields   map[string]any `json:"fields"`
}

// ClaimKind tags a single typed assertion extracted from a document.
type ClaimKind string

const (
	ClaimName            ClaimKind = "name"
	ClaimNationalID      ClaimKind = "national_id"
	ClaimDateOfBirth     ClaimKind = "date_of_birth"
	ClaimFiliationMother ClaimKind = "filiation_mother"
	ClaimFiliationFather ClaimKind = "filiation_father"
	ClaimIDNumber        ClaimKind = "id_number"
)

// Claim is one typed assertion pulled from one document. Canonical is the
// comparison-safe form; Raw preserves the original value for the
// adjudicator's fuzzy reasoning.
type Claim struct {
	Kind       ClaimKind    `json:"kind"`
	Raw        string       `json:"raw_value"`
	Canonical  string       `json:"canonical_value"`
	SourceType DocumentType `json:"source_type"`
	SourceName string       `json:"source_document"`
}

// ReferenceDates are the calendar anchors the adjudicator compares against,
// rendered as ISO dates.
type ReferenceDates struct {
	Today          string `json:"today"`
	CourseCeiling  string `json:"course_ceiling"`
	FreshnessFloor string `json:"freshness_floor"`
}

// IdentityCardFacts are derived from the identity card document.
type IdentityCardFacts struct {
	Present bool `json:"present"`
	// ExpiryDate is issuance + 10 years as an ISO date, nil when the
	// issuance date was absent or unparsable.
	ExpiryDate *string `json:"expiry_date"`
}

// TranscriptFacts are derived from the school transcript.
type TranscriptFacts struct {
	Present             bool `json:"present"`
	CompletionConfirmed bool `json:"completion_confirmed"`
}

// ResidenceFacts are derived from the proof of residence. LinkedNationalID
// may belong to a third party and is excluded from identity cross-checks.
type ResidenceFacts struct {
	Present              bool    `json:"present"`
	Titleholder          string  `json:"titleholder"`
	TitleholderCanonical string  `json:"titleholder_canonical"`
	LinkedNationalID     string  `json:"linked_national_id"`
	IssuedAt             *string `json:"issued_at"`
}

// ExamReportFacts are derived from the exam score report. Year is copied
// through verbatim.
type ExamReportFacts struct {
	Present bool `json:"present"`
	Year    any  `json:"year"`
}

// PresenceFacts marks document kinds where only presence matters.
type PresenceFacts struct {
	Present bool `json:"present"`
}

// DerivedFacts groups document-type-scoped computed values. Computed once
// per run, never mutated after creation.
type DerivedFacts struct {
	IdentityCard     IdentityCardFacts `json:"identity_card"`
	Transcript       TranscriptFacts   `json:"transcript"`
	Residence        ResidenceFacts    `json:"residence_proof"`
	ExamReport       ExamReportFacts   `json:"exam_report"`
	Military         PresenceFacts     `json:"military_certificate"`
	BirthCertificate PresenceFacts     `json:"birth_certificate"`
	Guardian         PresenceFacts     `json:"guardian_document"`
}

// Dossier is the harmonized snapshot submitted for adjudication.
type Dossier struct {
	References        ReferenceDates        `json:"reference_dates"`
	Candidate         Candidate             `json:"candidate_identity"`
	ClaimsByKind      map[ClaimKind][]Claim `json:"claims_by_kind"`
	Facts             DerivedFacts          `json:"derived_facts"`
	ValidTitleholders []string              `json:"valid_titleholder_names"`
	DocumentsPresent  []string              `json:"documents_present"`
}

// Severity grades one finding.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IsValid reports whether the severity is one of the known grades.
func (s Severity) IsValid() bool {
	return s == SeverityOK || s == SeverityWarning || s == SeverityError
}

// Finding is one rule-evaluation result. Documents names the source
// document types the finding implicates, when any.
type Finding struct {
	Severity  Severity `json:"severity"`
	RuleID    string   `json:"rule_id"`
	Detail    string   `json:"detail"`
	Documents []string `json:"documents,omitempty"`
}

// Decision is the audit verdict.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionPending  Decision = "pending"
)

// IsValid reports whether the decision is one of the known verdicts.
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionPending
}

// AuditOutcome is what the adjudicator returns for one dossier.
type AuditOutcome struct {
	Findings    []Finding `json:"findings"`
	Decision    Decision  `json:"decision"`
	Explanation string    `json:"explanation"`
}

// ErrorDocuments collects the document type names implicated by
// error-severity findings, de-duplicated in first-seen order.
func (o *AuditOutcome) ErrorDocuments() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, f := range o.Findings {
		if f.Severity != SeverityError {
			continue
		}
		for _, name := range f.Documents {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// DecisionRecord is what gets persisted on the case.
type DecisionRecord struct {
	Decision    Decision  `json:"decision"`
	Explanation string    `json:"explanation"`
	DecidedAt   time.Time `json:"decided_at"`
}

// DocumentRejection marks one source document as contradictory.
type DocumentRejection struct {
	DocumentID int64  `json:"document_id"`
	Reason     string `json:"reason"`
}
