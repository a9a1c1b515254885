// Package worker consumes audit run requests from Kafka and executes them.
// Business outcomes and malformed requests commit the record; external
// failures leave it uncommitted so the run is retried.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"docaudit/internal/audit/orchestrator"
	"docaudit/internal/platform/kafka/consumer"
	dErrors "docaudit/pkg/domain-errors"
)

// AuditRunner executes one audit run.
type AuditRunner interface {
	Run(ctx context.Context, caseID int64) (*orchestrator.RunResult, error)
}

// Worker handles consumed run requests. It implements consumer.Handler.
type Worker struct {
	runner AuditRunner
	locker Locker
	logger *slog.Logger
}

// New wires a worker over the orchestrator and the run locker.
func New(runner AuditRunner, locker Locker, logger *slog.Logger) *Worker {
	return &Worker{
		runner: runner,
		locker: locker,
		logger: logger,
	}
}

// runRequest is the queue message payload.
type runRequest struct {
	CaseID int64 `json:"case_id"`
}

// Handle executes the audit run requested by one message.
func (w *Worker) Handle(ctx context.Context, msg *consumer.Message) error {
	var req runRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		// Malformed payloads never become valid; commit and move on.
		w.logger.WarnContext(ctx, "discarding malformed run request",
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if req.CaseID <= 0 {
		w.logger.WarnContext(ctx, "discarding run request without case id",
			"offset", msg.Offset,
		)
		return nil
	}

	acquired, err := w.locker.Acquire(ctx, req.CaseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to acquire run lock")
	}
	if !acquired {
		// Another worker is already auditing this case; its run will persist
		// the decision.
		w.logger.InfoContext(ctx, "audit run already in flight",
			"case_id", req.CaseID,
		)
		return nil
	}
	defer w.locker.Release(ctx, req.CaseID)

	result, err := w.runner.Run(ctx, req.CaseID)
	if err != nil {
		switch dErrors.Code(err) {
		case dErrors.CodeNotFound, dErrors.CodeBadRequest:
			// The request itself is wrong; a retry cannot fix it.
			w.logger.WarnContext(ctx, "discarding unprocessable run request",
				"case_id", req.CaseID,
				"error", err,
			)
			return nil
		default:
			return err
		}
	}

	w.logger.InfoContext(ctx, "queued audit run completed",
		"case_id", req.CaseID,
		"run_id", result.RunID,
		"decision", result.Decision,
	)
	return nil
}
