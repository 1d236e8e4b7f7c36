package monitoring

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

// JobExecutionStatus is the state of a scheduled job's latest run
type JobExecutionStatus string

const (
	JobStatusPending JobExecutionStatus = "pending"
	JobStatusRunning JobExecutionStatus = "running"
	JobStatusSuccess JobExecutionStatus = "success"
	JobStatusFailed  JobExecutionStatus = "failed"
	JobStatusStalled JobExecutionStatus = "stalled"
)

const defaultStallAfter = 5 * time.Minute

var (
	errJobTimeout  = errors.New("job timeout")
	errJobPanicked = errors.New("job panicked")
)

// JobStatus is what /health/jobs reports per job. Only the error kind is kept,
// adapter error text stays in the logs.
type JobStatus struct {
	JobName             string             `json:"job_name"`
	Status              JobExecutionStatus `json:"status"`
	LastRunTime         time.Time          `json:"last_run_time"`
	LastDuration        time.Duration      `json:"last_duration_ms"`
	SuccessCount        int64              `json:"success_count"`
	FailureCount        int64              `json:"failure_count"`
	SkippedCount        int64              `json:"skipped_count"`
	ConsecutiveFailures int64              `json:"consecutive_failures"`
	LastErrorKind       string             `json:"last_error_kind,omitempty"`

	stallAfter time.Duration
}

// JobsSummary provides an overview of all job statuses
type JobsSummary struct {
	TotalJobs      int       `json:"total_jobs"`
	RunningJobs    int       `json:"running_jobs"`
	HealthyJobs    int       `json:"healthy_jobs"`
	UnhealthyJobs  int       `json:"unhealthy_jobs"`
	StalledJobs    int       `json:"stalled_jobs"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// JobStatusManager tracks the scheduled jobs of this process
type JobStatusManager struct {
	mu       sync.RWMutex
	statuses map[string]*JobStatus
	logger   *logger.Logger
	metrics  *BackgroundJobMetrics
}

func NewJobStatusManager(logger *logger.Logger, metrics *BackgroundJobMetrics) *JobStatusManager {
	return &JobStatusManager{
		statuses: make(map[string]*JobStatus),
		logger:   logger,
		metrics:  metrics,
	}
}

// RegisterJob adds a job. A run going on longer than stallAfter is reported as stalled.
func (jsm *JobStatusManager) RegisterJob(jobName string, stallAfter time.Duration) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if stallAfter <= 0 {
		stallAfter = defaultStallAfter
	}
	if status, exists := jsm.statuses[jobName]; exists {
		status.stallAfter = stallAfter
		return
	}
	jsm.statuses[jobName] = &JobStatus{
		JobName:    jobName,
		Status:     JobStatusPending,
		stallAfter: stallAfter,
	}
}

func (jsm *JobStatusManager) StartJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		status = &JobStatus{JobName: jobName, stallAfter: defaultStallAfter}
		jsm.statuses[jobName] = status
	}
	status.Status = JobStatusRunning
	status.LastRunTime = time.Now()

	jsm.metrics.activeJobs.Inc()

	jsm.logger.Debug("[JobStatusManager][StartJob]", map[string]string{
		"job_name": jobName,
	})
}

// CompleteJob records the outcome of the run started by StartJob
func (jsm *JobStatusManager) CompleteJob(jobName string, err error) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists || status.Status != JobStatusRunning {
		jsm.logger.Error("[JobStatusManager][CompleteJob] job is not running", map[string]string{
			"job_name": jobName,
		})
		return
	}

	duration := time.Since(status.LastRunTime)
	status.LastDuration = duration
	jsm.metrics.activeJobs.Dec()

	if err != nil {
		status.Status = JobStatusFailed
		status.FailureCount++
		status.ConsecutiveFailures++
		status.LastErrorKind = classifyJobError(err)

		jsm.metrics.jobRuns.WithLabelValues(jobName, "error").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "failed").Observe(duration.Seconds())

		jsm.logger.Error("[JobStatusManager][CompleteJob] job failed", map[string]string{
			"job_name":             jobName,
			"duration":             duration.String(),
			"error":                err.Error(),
			"consecutive_failures": strconv.FormatInt(status.ConsecutiveFailures, 10),
		})
		return
	}

	status.Status = JobStatusSuccess
	status.SuccessCount++
	status.ConsecutiveFailures = 0
	status.LastErrorKind = ""

	jsm.metrics.jobRuns.WithLabelValues(jobName, "success").Inc()
	jsm.metrics.jobDuration.WithLabelValues(jobName, "success").Observe(duration.Seconds())

	jsm.logger.Info("[JobStatusManager][CompleteJob] job completed", map[string]string{
		"job_name": jobName,
		"duration": duration.String(),
	})
}

// SkipJob counts a tick dropped because the previous run had not finished
func (jsm *JobStatusManager) SkipJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if status, exists := jsm.statuses[jobName]; exists {
		status.SkippedCount++
	}
	jsm.metrics.jobRuns.WithLabelValues(jobName, "skipped").Inc()
}

func (jsm *JobStatusManager) GetJobStatus(jobName string) (*JobStatus, bool) {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		return nil, false
	}
	cp := jsm.snapshot(status, time.Now())
	return &cp, true
}

func (jsm *JobStatusManager) GetAllJobStatuses() map[string]JobStatus {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	now := time.Now()
	result := make(map[string]JobStatus, len(jsm.statuses))
	for name, status := range jsm.statuses {
		result[name] = jsm.snapshot(status, now)
	}
	return result
}

// snapshot copies status, a run past its stall threshold reads as stalled
func (jsm *JobStatusManager) snapshot(status *JobStatus, now time.Time) JobStatus {
	cp := *status
	if cp.Status == JobStatusRunning && now.Sub(cp.LastRunTime) > cp.stallAfter {
		cp.Status = JobStatusStalled
	}
	return cp
}

func (jsm *JobStatusManager) GetJobsSummary() JobsSummary {
	statuses := jsm.GetAllJobStatuses()

	summary := JobsSummary{
		TotalJobs:      len(statuses),
		LastUpdateTime: time.Now(),
	}
	for _, status := range statuses {
		switch status.Status {
		case JobStatusRunning:
			summary.RunningJobs++
		case JobStatusSuccess:
			summary.HealthyJobs++
		case JobStatusFailed:
			summary.UnhealthyJobs++
		case JobStatusStalled:
			summary.StalledJobs++
		}
	}
	return summary
}

// Heartbeat is notified after every successful run
type Heartbeat interface {
	Beat(ctx context.Context)
}

// InstrumentedJob runs a job on cron ticks under a timeout, records it in the
// JobStatusManager and recovers panics. Runs stop when the base context is done.
type InstrumentedJob struct {
	base          context.Context
	jobName       string
	jobFunc       func(ctx context.Context) error
	statusManager *JobStatusManager
	logger        *logger.Logger
	timeout       time.Duration
	heartbeat     Heartbeat
	running       sync.Mutex
}

func NewInstrumentedJob(
	base context.Context,
	jobName string,
	jobFunc func(ctx context.Context) error,
	statusManager *JobStatusManager,
	logger *logger.Logger,
	timeout time.Duration,
) *InstrumentedJob {
	statusManager.RegisterJob(jobName, 2*timeout)

	return &InstrumentedJob{
		base:          base,
		jobName:       jobName,
		jobFunc:       jobFunc,
		statusManager: statusManager,
		logger:        logger,
		timeout:       timeout,
	}
}

// WithHeartbeat sets the uptime hook called after successful runs
func (ij *InstrumentedJob) WithHeartbeat(h Heartbeat) *InstrumentedJob {
	ij.heartbeat = h
	return ij
}

// Run satisfies cron.Job
func (ij *InstrumentedJob) Run() {
	ij.Execute(ij.base)
}

// Execute runs the job once. A run that starts while the previous one is still
// going is skipped, so is one that starts after parent is done.
func (ij *InstrumentedJob) Execute(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	if !ij.running.TryLock() {
		ij.statusManager.SkipJob(ij.jobName)
		ij.logger.Warn("[InstrumentedJob][Execute] previous run still in progress", map[string]string{
			"job_name": ij.jobName,
		})
		return
	}
	defer ij.running.Unlock()

	ij.statusManager.StartJob(ij.jobName)

	ctx, cancel := context.WithTimeout(parent, ij.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ij.logger.Error("[InstrumentedJob][Execute] job panicked", map[string]string{
					"job_name":    ij.jobName,
					"panic":       fmt.Sprint(r),
					"stack_trace": string(debug.Stack()),
				})
				done <- errors.Wrapf(errJobPanicked, "%v", r)
			}
		}()
		done <- ij.jobFunc(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		if parent.Err() != nil {
			err = errors.Wrap(parent.Err(), "job interrupted")
			break
		}
		err = errors.Wrapf(errJobTimeout, "after %v", ij.timeout)
		ij.statusManager.metrics.jobTimeouts.WithLabelValues(ij.jobName).Inc()
	}

	ij.statusManager.CompleteJob(ij.jobName, err)

	if err == nil && ij.heartbeat != nil {
		ij.heartbeat.Beat(parent)
	}
}

// BackgroundJobMetrics holds the scheduled job and reconciliation backlog metrics
type BackgroundJobMetrics struct {
	jobDuration    *prometheus.HistogramVec
	jobRuns        *prometheus.CounterVec
	activeJobs     prometheus.Gauge
	pendingIntents *prometheus.GaugeVec
	jobTimeouts    *prometheus.CounterVec
}

func NewBackgroundJobMetrics() *BackgroundJobMetrics {
	return &BackgroundJobMetrics{
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_relayer_background_job_duration_seconds",
				Help:    "Background job execution duration in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 300, 600},
			},
			[]string{"job_name", "status"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_relayer_background_job_runs_total",
				Help: "Background job runs by outcome, skipped counts overlapping ticks",
			},
			[]string{"job_name", "status"},
		),
		activeJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_relayer_background_jobs_active",
				Help: "Number of currently running background jobs",
			},
		),
		pendingIntents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_relayer_pending_intents",
				Help: "Number of non-terminal intents seen by the last reconciliation, by status",
			},
			[]string{"status"},
		),
		jobTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_relayer_job_timeouts_total",
				Help: "Total job timeouts",
			},
			[]string{"job_name"},
		),
	}
}

func (m *BackgroundJobMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.jobDuration,
		m.jobRuns,
		m.activeJobs,
		m.pendingIntents,
		m.jobTimeouts,
	)
}

// SetPendingIntents publishes the per-status backlog counted by a reconciliation pass
func (m *BackgroundJobMetrics) SetPendingIntents(counts map[model.IntentStatus]int) {
	for _, status := range model.NonTerminalIntentStatuses {
		m.pendingIntents.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func classifyJobError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errJobTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, errJobPanicked):
		return "panic"
	}
	return string(errs.KindOf(err))
}
