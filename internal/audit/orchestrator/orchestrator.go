// Package orchestrator drives one audit run through its stages: fetch the
// case, check prerequisites, harmonize the documents into a dossier,
// adjudicate, and persist the verdict. Each stage either advances the run or
// aborts it; an aborted run persists nothing and can be retried.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docaudit/internal/adjudicator"
	"docaudit/internal/audit/canon"
	"docaudit/internal/audit/dossier"
	"docaudit/internal/audit/gate"
	"docaudit/internal/audit/metrics"
	"docaudit/internal/audit/models"
	"docaudit/internal/audit/store"
	"docaudit/internal/platform/config"
	dErrors "docaudit/pkg/domain-errors"
	"docaudit/pkg/requestcontext"
)

// State names one stage of the run. States appear in logs, traces, and
// failure metrics.
type State string

const (
	StateFetch             State = "fetch"
	StateCheckPrereq       State = "check_prerequisites"
	StateHarmonize         State = "harmonize"
	StateAdjudicate        State = "adjudicate"
	StatePersistDecision   State = "persist_decision"
	StatePersistPrereqFail State = "persist_prerequisite_failure"
	StateDone              State = "done"
)

func (s State) String() string { return string(s) }

// RunResult is the business outcome of one completed run.
type RunResult struct {
	RunID       string                     `json:"run_id"`
	CaseID      int64                      `json:"case_id"`
	Decision    models.Decision            `json:"decision"`
	Explanation string                     `json:"explanation"`
	Findings    []models.Finding           `json:"findings,omitempty"`
	Rejected    []models.DocumentRejection `json:"rejected_documents,omitempty"`
	DecidedAt   time.Time                  `json:"decided_at"`
}

// Orchestrator executes audit runs. Safe for concurrent use.
type Orchestrator struct {
	store       store.Store
	adjudicator adjudicator.Adjudicator
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer

	fetchTimeout      time.Duration
	adjudicateTimeout time.Duration
}

// Option configures optional Orchestrator dependencies.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTracer replaces the default tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// New wires an orchestrator over a case store and an adjudication backend.
func New(st store.Store, adj adjudicator.Adjudicator, cfg config.Audit, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:             st,
		adjudicator:       adj,
		logger:            slog.Default(),
		tracer:            otel.Tracer("docaudit/audit"),
		fetchTimeout:      cfg.FetchTimeout,
		adjudicateTimeout: cfg.AdjudicateTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one audit for the given case. A returned error means the run
// aborted with nothing persisted; a RunResult means a decision (or a
// prerequisite failure) is now on record.
func (o *Orchestrator) Run(ctx context.Context, caseID int64) (*RunResult, error) {
	runID := uuid.NewString()
	started := time.Now()
	now := requestcontext.Now(ctx)

	logger := o.logger.With(
		slog.String("run_id", runID),
		slog.Int64("case_id", caseID),
	)
	if o.metrics != nil {
		o.metrics.RunsStarted.Inc()
	}

	ctx, span := o.tracer.Start(ctx, "audit.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int64("case_id", caseID),
	))
	defer span.End()

	logger.InfoContext(ctx, "audit run started")

	rec, err := o.fetch(ctx, caseID)
	if err != nil {
		return nil, o.fail(ctx, logger, span, StateFetch, err)
	}

	if res := o.checkPrereq(ctx, rec.Documents); !res.Met {
		return o.persistPrereqFailure(ctx, logger, span, caseID, runID, now, res.Message)
	}

	d := o.harmonize(ctx, rec, now)

	outcome, err := o.adjudicate(ctx, d)
	if err != nil {
		return nil, o.fail(ctx, logger, span, StateAdjudicate, err)
	}

	result, err := o.persistDecision(ctx, logger, caseID, runID, now, rec.Documents, outcome)
	if err != nil {
		return nil, o.fail(ctx, logger, span, StatePersistDecision, err)
	}

	if o.metrics != nil {
		o.metrics.ObserveRun(string(result.Decision), time.Since(started))
	}
	logger.InfoContext(ctx, "audit run completed",
		slog.String("state", StateDone.String()),
		slog.String("decision", string(result.Decision)),
		slog.Int("findings", len(result.Findings)),
		slog.Int("rejected_documents", len(result.Rejected)),
	)
	return result, nil
}

func (o *Orchestrator) fetch(ctx context.Context, caseID int64) (*store.CaseRecord, error) {
	ctx, span := o.tracer.Start(ctx, "audit."+StateFetch.String())
	defer span.End()

	if o.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.fetchTimeout)
		defer cancel()
	}
	rec, err := o.store.LoadCase(ctx, caseID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("documents", len(rec.Documents)))
	return rec, nil
}

func (o *Orchestrator) checkPrereq(ctx context.Context, docs []models.ApprovedDocument) gate.Result {
	_, span := o.tracer.Start(ctx, "audit."+StateCheckPrereq.String())
	defer span.End()

	res := gate.Check(docs)
	span.SetAttributes(attribute.Bool("met", res.Met))
	return res
}

func (o *Orchestrator) harmonize(ctx context.Context, rec *store.CaseRecord, now time.Time) *models.Dossier {
	_, span := o.tracer.Start(ctx, "audit."+StateHarmonize.String())
	defer span.End()

	d := dossier.Build(rec.Candidate, rec.Documents, now)
	span.SetAttributes(attribute.Int("documents_present", len(d.DocumentsPresent)))
	return d
}

func (o *Orchestrator) adjudicate(ctx context.Context, d *models.Dossier) (*models.AuditOutcome, error) {
	ctx, span := o.tracer.Start(ctx, "audit."+StateAdjudicate.String())
	defer span.End()

	if o.adjudicateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.adjudicateTimeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := o.adjudicator.Adjudicate(ctx, d)
	if o.metrics != nil {
		o.metrics.AdjudicatorLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("decision", string(outcome.Decision)))
	return outcome, nil
}

// persistPrereqFailure records an unmet prerequisite as a pending decision so
// the case surfaces for correction; no documents are rejected.
func (o *Orchestrator) persistPrereqFailure(ctx context.Context, logger *slog.Logger, parent trace.Span, caseID int64, runID string, now time.Time, message string) (*RunResult, error) {
	ctx, span := o.tracer.Start(ctx, "audit."+StatePersistPrereqFail.String())
	defer span.End()

	rec := models.DecisionRecord{
		Decision:    models.DecisionPending,
		Explanation: message,
		DecidedAt:   now,
	}
	if err := o.store.SaveDecision(ctx, caseID, rec); err != nil {
		return nil, o.fail(ctx, logger, parent, StatePersistPrereqFail, err)
	}

	if o.metrics != nil {
		o.metrics.ObserveRun(string(models.DecisionPending), 0)
	}
	logger.InfoContext(ctx, "prerequisites not met",
		slog.String("state", StatePersistPrereqFail.String()),
		slog.String("reason", message),
	)
	return &RunResult{
		RunID:       runID,
		CaseID:      caseID,
		Decision:    models.DecisionPending,
		Explanation: message,
		DecidedAt:   now,
	}, nil
}

func (o *Orchestrator) persistDecision(ctx context.Context, logger *slog.Logger, caseID int64, runID string, now time.Time, docs []models.ApprovedDocument, outcome *models.AuditOutcome) (*RunResult, error) {
	ctx, span := o.tracer.Start(ctx, "audit."+StatePersistDecision.String())
	defer span.End()

	rec := models.DecisionRecord{
		Decision:    outcome.Decision,
		Explanation: outcome.Explanation,
		DecidedAt:   now,
	}
	if err := o.store.SaveDecision(ctx, caseID, rec); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var rejections []models.DocumentRejection
	if outcome.Decision == models.DecisionPending {
		rejections = mapRejections(docs, outcome)
		if len(rejections) > 0 {
			if err := o.store.RejectDocuments(ctx, rejections); err != nil {
				span.RecordError(err)
				return nil, err
			}
			if o.metrics != nil {
				o.metrics.DocumentsRejected.Add(float64(len(rejections)))
			}
		}
	}

	return &RunResult{
		RunID:       runID,
		CaseID:      caseID,
		Decision:    outcome.Decision,
		Explanation: outcome.Explanation,
		Findings:    outcome.Findings,
		Rejected:    rejections,
		DecidedAt:   now,
	}, nil
}

// mapRejections resolves the document names implicated by error findings back
// to stored document ids. Findings name documents either by their display
// type name or by the machine type identifier; both forms are matched.
func mapRejections(docs []models.ApprovedDocument, outcome *models.AuditOutcome) []models.DocumentRejection {
	var rejections []models.DocumentRejection
	for _, name := range outcome.ErrorDocuments() {
		for _, doc := range docs {
			if !documentMatches(doc, name) {
				continue
			}
			rejections = append(rejections, models.DocumentRejection{
				DocumentID: doc.ID,
				Reason:     rejectionReason(outcome, name),
			})
		}
	}
	return rejections
}

func documentMatches(doc models.ApprovedDocument, name string) bool {
	return canon.Text(doc.TypeName) == canon.Text(name) || doc.Type.String() == name
}

// rejectionReason joins the details of every error finding implicating the
// named document.
func rejectionReason(outcome *models.AuditOutcome, name string) string {
	var details []string
	for _, f := range outcome.Findings {
		if f.Severity != models.SeverityError {
			continue
		}
		for _, d := range f.Documents {
			if d == name {
				details = append(details, f.Detail)
				break
			}
		}
	}
	return strings.Join(details, "; ")
}

// fail normalizes a stage failure: uncoded errors become unavailable so the
// caller can retry, not_found and bad_request pass through untouched.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, span trace.Span, state State, err error) error {
	code := dErrors.Code(err)
	if code != dErrors.CodeNotFound && code != dErrors.CodeBadRequest && code != dErrors.CodeUnavailable {
		err = dErrors.Wrap(err, dErrors.CodeUnavailable, "audit stage "+state.String()+" failed")
	}
	if o.metrics != nil {
		o.metrics.ObserveFailure(state.String())
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, state.String())
	logger.ErrorContext(ctx, "audit run aborted",
		slog.String("state", state.String()),
		slog.String("error", err.Error()),
	)
	return err
}
