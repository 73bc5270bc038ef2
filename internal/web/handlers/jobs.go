package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/image-compare/internal/compare"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

const (
	// eventChannelBuffer is the per-listener event buffer; events beyond it are dropped.
	eventChannelBuffer = 100

	// jobRetention is how long finished jobs stay queryable.
	jobRetention = time.Hour
)

// CompareJob is a comparison running in the background.
type CompareJob struct {
	EventBroadcaster

	id          string
	imageURL    string
	query       string
	status      JobStatus
	total       int
	done        int
	err         string
	startedAt   time.Time
	completedAt *time.Time
	results     []compare.Result
}

// CompareJobView is the JSON snapshot of a CompareJob.
type CompareJobView struct {
	ID          string           `json:"id"`
	ImageURL    string           `json:"imageUrl"`
	Query       string           `json:"query,omitempty"`
	Status      JobStatus        `json:"status"`
	Total       int              `json:"total"`
	Done        int              `json:"done"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Results     []compare.Result `json:"results,omitempty"`
	Summary     *compare.Summary `json:"summary,omitempty"`
}

// ID returns the job identifier.
func (j *CompareJob) ID() string {
	return j.id
}

// GetStatus returns the current job status (implements SSEJob).
func (j *CompareJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// View returns a consistent snapshot of the job. Results are only
// included once the job has completed.
func (j *CompareJob) View() CompareJobView {
	j.mu.RLock()
	defer j.mu.RUnlock()

	view := CompareJobView{
		ID:          j.id,
		ImageURL:    j.imageURL,
		Query:       j.query,
		Status:      j.status,
		Total:       j.total,
		Done:        j.done,
		Error:       j.err,
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
	}
	if j.status == JobStatusCompleted {
		view.Results = j.results
		summary := compare.Summarize(j.results)
		view.Summary = &summary
	}
	return view
}

// Cancel cancels the job. It reports false when the job had already finished.
func (j *CompareJob) Cancel() bool {
	j.mu.Lock()
	if isJobTerminal(j.status) {
		j.mu.Unlock()
		return false
	}
	j.status = JobStatusCancelled
	now := time.Now()
	j.completedAt = &now
	j.mu.Unlock()

	j.EventBroadcaster.Cancel()
	return true
}

// start installs the job's cancel func and reports whether it should run.
func (j *CompareJob) start(cancel context.CancelFunc) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = cancel
	if j.status != JobStatusPending {
		return false
	}
	j.status = JobStatusRunning
	return true
}

func (j *CompareJob) setTotal(total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.total = total
}

// setProgress records done, ignoring reports that arrive out of order.
func (j *CompareJob) setProgress(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.total = total
	j.done = max(j.done, done)
}

// finish moves a running job to a terminal state. It reports false when the
// job was already terminal, e.g. cancelled while the batch was draining.
func (j *CompareJob) finish(status JobStatus, results []compare.Result, errMsg string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if isJobTerminal(j.status) {
		return false
	}
	now := time.Now()
	j.status = status
	j.results = results
	j.err = errMsg
	j.completedAt = &now
	return true
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, eventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the job via context and sends a cancelled event.
func (b *EventBroadcaster) Cancel() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	b.SendEvent(JobEvent{Type: "cancelled", Message: "Job cancelled by user"})
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages async comparison jobs.
type JobManager struct {
	jobs map[string]*CompareJob
	mu   sync.RWMutex
	now  func() time.Time
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*CompareJob),
		now:  time.Now,
	}
}

// CreateJob registers a pending job and prunes finished jobs older than jobRetention.
func (m *JobManager) CreateJob(imageURL, query string, total int) *CompareJob {
	job := &CompareJob{
		id:        uuid.New().String(),
		imageURL:  imageURL,
		query:     query,
		status:    JobStatusPending,
		total:     total,
		startedAt: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	m.jobs[job.id] = job

	return job
}

func (m *JobManager) pruneLocked() {
	cutoff := m.now().Add(-jobRetention)
	for id, job := range m.jobs {
		job.mu.RLock()
		expired := job.completedAt != nil && job.completedAt.Before(cutoff)
		job.mu.RUnlock()
		if expired {
			delete(m.jobs, id)
		}
	}
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *CompareJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// ListJobs returns all jobs.
func (m *JobManager) ListJobs() []*CompareJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*CompareJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// CancelAll cancels every job that has not finished yet.
func (m *JobManager) CancelAll() int {
	n := 0
	for _, job := range m.ListJobs() {
		if job.Cancel() {
			n++
		}
	}
	return n
}
