package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/notifybot/internal/metrics"
)

// newSMTPProbeTask creates the task that logs in to the SMTP server with the
// configured account without sending anything.
func newSMTPProbeTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "smtp_probe")

	return func(ctx context.Context) error {
		host := deps.Prober.Host()
		log.InfoContext(ctx, "Probing SMTP server...", "host", host)
		startTime := time.Now()

		err := deps.Prober.Probe(ctx, deps.Config.OwnMail, deps.Config.OwnMailPassword)
		duration := time.Since(startTime)

		if err != nil {
			metrics.SMTPProbes.WithLabelValues(host, "failure").Inc()
			log.ErrorContext(ctx, "SMTP probe failed", "host", host, "error", err, "duration", duration)
			return fmt.Errorf("smtp probe failed: %w", err)
		}

		metrics.SMTPProbes.WithLabelValues(host, "success").Inc()
		log.InfoContext(ctx, "SMTP probe succeeded", "host", host, "duration", duration)
		return nil
	}
}
