package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/orchestrator"
	"docaudit/internal/platform/kafka/consumer"
	dErrors "docaudit/pkg/domain-errors"
)

type stubRunner struct {
	result *orchestrator.RunResult
	err    error
	calls  []int64
}

func (r *stubRunner) Run(_ context.Context, caseID int64) (*orchestrator.RunResult, error) {
	r.calls = append(r.calls, caseID)
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

type stubLocker struct {
	acquired bool
	err      error
	releases []int64
	acquires []int64
}

func (l *stubLocker) Acquire(_ context.Context, caseID int64) (bool, error) {
	l.acquires = append(l.acquires, caseID)
	return l.acquired, l.err
}

func (l *stubLocker) Release(_ context.Context, caseID int64) {
	l.releases = append(l.releases, caseID)
}

func newWorker(runner *stubRunner, locker *stubLocker) *Worker {
	return New(runner, locker, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func msg(body string) *consumer.Message {
	return &consumer.Message{Topic: "docaudit.audit-requests", Value: []byte(body)}
}

func TestHandleRunsAndCommits(t *testing.T) {
	runner := &stubRunner{result: &orchestrator.RunResult{
		RunID:    "run-1",
		CaseID:   7,
		Decision: models.DecisionApproved,
	}}
	locker := &stubLocker{acquired: true}

	err := newWorker(runner, locker).Handle(context.Background(), msg(`{"case_id":7}`))
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, runner.calls)
	assert.Equal(t, []int64{7}, locker.acquires)
	assert.Equal(t, []int64{7}, locker.releases, "the lock must be released after the run")
}

func TestHandleDiscardsMalformedPayload(t *testing.T) {
	runner := &stubRunner{}
	locker := &stubLocker{acquired: true}

	err := newWorker(runner, locker).Handle(context.Background(), msg(`not json`))
	require.NoError(t, err, "malformed payloads are committed, not retried")
	assert.Empty(t, runner.calls)
}

func TestHandleDiscardsMissingCaseID(t *testing.T) {
	runner := &stubRunner{}
	err := newWorker(runner, &stubLocker{acquired: true}).Handle(context.Background(), msg(`{}`))
	require.NoError(t, err)
	assert.Empty(t, runner.calls)
}

func TestHandleSkipsLockedCase(t *testing.T) {
	runner := &stubRunner{}
	locker := &stubLocker{acquired: false}

	err := newWorker(runner, locker).Handle(context.Background(), msg(`{"case_id":7}`))
	require.NoError(t, err, "a case already in flight commits without running")
	assert.Empty(t, runner.calls)
	assert.Empty(t, locker.releases, "a lock we did not take must not be released")
}

func TestHandleLockFailureIsRetryable(t *testing.T) {
	locker := &stubLocker{err: dErrors.New(dErrors.CodeUnavailable, "redis down")}

	err := newWorker(&stubRunner{}, locker).Handle(context.Background(), msg(`{"case_id":7}`))
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.Code(err))
}

func TestHandleDiscardsUnknownCase(t *testing.T) {
	runner := &stubRunner{err: dErrors.New(dErrors.CodeNotFound, "case 7 not found")}
	locker := &stubLocker{acquired: true}

	err := newWorker(runner, locker).Handle(context.Background(), msg(`{"case_id":7}`))
	require.NoError(t, err, "a missing case cannot be fixed by redelivery")
	assert.Equal(t, []int64{7}, locker.releases)
}

func TestHandlePipelineFailureIsRetried(t *testing.T) {
	runner := &stubRunner{err: dErrors.New(dErrors.CodeUnavailable, "adjudicator down")}
	locker := &stubLocker{acquired: true}

	err := newWorker(runner, locker).Handle(context.Background(), msg(`{"case_id":7}`))
	require.Error(t, err, "pipeline failures must leave the record uncommitted")
	assert.Equal(t, []int64{7}, locker.releases, "the lock is released so the retry can reacquire it")
}
