package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by the housekeeping jobs.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	removed     *prometheus.CounterVec
	now         func() time.Time
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job collectors on registerer, or once on the default
// registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker instruments one job run. Rows reported through Removed are only
// counted when the run succeeds.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
	table   string
	rows    int64
}

// Track starts a tracker for job. A nil Metrics yields a tracker that records nothing.
func (m *Metrics) Track(job string) *Tracker {
	t := &Tracker{metrics: m, job: job}
	if m != nil {
		t.start = m.now()
	}
	return t
}

// Removed notes how many rows the run deleted from table.
func (t *Tracker) Removed(table string, rows int64) {
	if t == nil {
		return
	}
	t.table = table
	t.rows = rows
}

// End records the run outcome and returns err unchanged.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	finished := m.now()
	m.duration.WithLabelValues(t.job).Observe(finished.Sub(t.start).Seconds())
	if err != nil {
		m.runs.WithLabelValues(t.job, "failure").Inc()
		return err
	}
	m.runs.WithLabelValues(t.job, "success").Inc()
	m.lastSuccess.WithLabelValues(t.job).Set(float64(finished.Unix()))
	if t.table != "" && t.rows > 0 {
		m.removed.WithLabelValues(t.table).Add(float64(t.rows))
	}
	return nil
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeos_jobs_total",
		Help: "Housekeeping job runs by job and status.",
	}, []string{"job", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collegeos_job_duration_seconds",
		Help:    "Housekeeping job run time.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"job"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "collegeos_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run per job.",
	}, []string{"job"})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeos_housekeeping_rows_removed_total",
		Help: "Rows deleted by housekeeping jobs, by table.",
	}, []string{"table"})
	registerer.MustRegister(runs, duration, lastSuccess, removed)
	return &Metrics{
		runs:        runs,
		duration:    duration,
		lastSuccess: lastSuccess,
		removed:     removed,
		now:         time.Now,
	}
}
