package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceOverdueScan flips past-due fakturs to OVERDUE.
	TaskInvoiceOverdueScan = "invoice:overdue_scan"
)

// OverdueScanPayload parameterises the overdue scan.
type OverdueScanPayload struct {
	// GraceDays delays the flip past the due date. Zero means due date is hard.
	GraceDays int `json:"grace_days"`
}

// NewOverdueScanTask constructs an Asynq task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceOverdueScan, data), nil
}
