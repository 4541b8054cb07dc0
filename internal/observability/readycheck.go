package observability

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/parallax/internal/health"
)

// HealthMonitorReadyCheck adapts a chunker health.Monitor into a ReadyCheck,
// failing readiness once the monitor classifies the process as critical.
func HealthMonitorReadyCheck(monitor *health.Monitor) ReadyCheck {
	return func(ctx context.Context) error {
		result := monitor.Check(ctx)
		if health.Classify(result) != health.StatusCritical {
			return nil
		}
		if result.Err != nil {
			return fmt.Errorf("health monitor reports critical status: %w", result.Err)
		}
		return fmt.Errorf("health monitor reports critical status: mem=%.2f cpu=%.2f", result.MemPercent, result.CPUPercent)
	}
}
