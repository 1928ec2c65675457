package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/awqaf-platform/waqf-ledger/internal/ledger"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIntegrityScan verifies the global debit/credit equality.
	TaskIntegrityScan = "ledger:integrity_scan"
	// TaskReportWarmup pre-computes the trial balance into the report cache.
	TaskReportWarmup = "ledger:report_warmup"
)

// IntegrityScanPayload carries no parameters yet; the scan always covers
// all posted entries.
type IntegrityScanPayload struct{}

// ReportWarmupPayload pins the as-of date of the warmed report. Zero
// means "today at enqueue time".
type ReportWarmupPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewIntegrityScanTask constructs an Asynq task.
func NewIntegrityScanTask() (*asynq.Task, error) {
	data, err := json.Marshal(IntegrityScanPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntegrityScan, data), nil
}

// NewReportWarmupTask constructs an Asynq task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// IntegrityScanHandler runs the ledger-wide invariant check. A violation
// is a data-integrity fault: the handler logs it loudly and keeps the
// task failed so operators see it in the retry queue.
func IntegrityScanHandler(svc *ledger.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := svc.CheckIntegrity(ctx); err != nil {
			logger.Error("ledger integrity scan failed", slog.Any("error", err))
			return err
		}
		logger.Info("ledger integrity scan passed")
		return nil
	}
}

// ReportWarmupHandler computes the trial balance so the first interactive
// request after cache invalidation hits a warm entry.
func ReportWarmupHandler(svc *ledger.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReportWarmupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		asOf := payload.AsOf
		if asOf.IsZero() {
			asOf = time.Now()
		}
		if _, err := svc.TrialBalance(ctx, asOf); err != nil {
			logger.Warn("report warmup failed", slog.Any("error", err))
			return err
		}
		return nil
	}
}
