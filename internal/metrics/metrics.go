// Package metrics defines the Prometheus collectors of the relay and the
// optional HTTP endpoint exposing them.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesHandled counts intake outcomes, e.g. sent, unauthorized, stale.
	MessagesHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_messages_handled_total",
		Help: "Total number of inbound messages processed, by outcome",
	}, []string{"outcome"})
	AttachmentDownloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_attachment_downloads_total",
		Help: "Total number of attachment downloads, by media kind and result",
	}, []string{"kind", "result"})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_mail_send_success_total",
		Help: "Total number of successfully delivered notification mails",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_mail_send_failure_total",
		Help: "Total number of notification mails that failed validation or delivery",
	}, []string{"host", "reason"})
	SMTPProbes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_smtp_probes_total",
		Help: "Total number of scheduled SMTP connectivity probes, by result",
	}, []string{"host", "result"})

	AttachmentDirFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notifybot_attachment_dir_files",
		Help: "Number of files in the attachment directory at the last report",
	})
	AttachmentDirBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notifybot_attachment_dir_bytes",
		Help: "Total size in bytes of the attachment directory at the last report",
	})
)

func init() {
	prometheus.MustRegister(MessagesHandled)
	prometheus.MustRegister(AttachmentDownloads)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(SMTPProbes)
	prometheus.MustRegister(AttachmentDirFiles)
	prometheus.MustRegister(AttachmentDirBytes)
}

// Server serves /metrics until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer creates a metrics server listening on addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("component", "metrics"),
	}
}

// Run blocks serving requests and shuts the server down when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Metrics endpoint listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Error shutting down metrics endpoint", "error", err)
		return err
	}
	s.logger.Info("Metrics endpoint stopped")
	return nil
}
