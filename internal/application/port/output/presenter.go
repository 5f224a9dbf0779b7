package output

import (
	"context"

	"epbm-autofill/internal/domain/entity"
)

// PresenterPort receives one-way run events. Implementations must not block for long;
// events are delivered in emission order.
type PresenterPort interface {
	OnLog(line string, level entity.LogLevel)
	OnProgress(percent int)
	OnRunOutcome(success bool, message string)
	OnItemsDiscovered(items []entity.WorkItem)
}

type DiagnosticsPort interface {
	Capture(ctx context.Context, driver DriverPort, runID, label string) (string, error)
}
