package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// sweepMetrics 提醒扫描指标
type sweepMetrics struct {
	runs      prometheus.Counter
	due       prometheus.Gauge
	sent      prometheus.Counter
	failed    prometheus.Counter
	exhausted prometheus.Counter
	duration  prometheus.Histogram
}

func newSweepMetrics(reg prometheus.Registerer) *sweepMetrics {
	f := promauto.With(reg)
	return &sweepMetrics{
		runs: f.NewCounter(prometheus.CounterOpts{
			Name: "issue_note_sweep_runs_total",
			Help: "Number of reminder sweeps executed.",
		}),
		due: f.NewGauge(prometheus.GaugeOpts{
			Name: "issue_note_reminders_due",
			Help: "Reminders found due by the last sweep.",
		}),
		sent: f.NewCounter(prometheus.CounterOpts{
			Name: "issue_note_reminders_sent_total",
			Help: "Reminders delivered and marked sent.",
		}),
		failed: f.NewCounter(prometheus.CounterOpts{
			Name: "issue_note_reminders_failed_total",
			Help: "Reminder delivery attempts that failed.",
		}),
		exhausted: f.NewCounter(prometheus.CounterOpts{
			Name: "issue_note_reminders_exhausted_total",
			Help: "Reminders that reached the attempt limit and were marked failed.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "issue_note_sweep_duration_seconds",
			Help:    "Time spent in one reminder sweep.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
