package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/search"
)

// JobRequest is the body of POST /api/v1/compare/jobs. When Query is set the
// job searches for candidates first and Candidates is ignored.
type JobRequest struct {
	ImageURL   string              `json:"imageUrl"`
	Candidates []compare.Candidate `json:"candidates,omitempty"`
	Query      string              `json:"query,omitempty"`
	Pages      int                 `json:"pages,omitempty"`
	Filter     string              `json:"filter,omitempty"`
	Sort       string              `json:"sort,omitempty"`
}

type progressData struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// JobsHandler runs comparisons in the background and streams their progress.
type JobsHandler struct {
	searcher search.Searcher
	comparer Comparer
	jobs     *JobManager
	maxPages int
	log      logrus.FieldLogger
}

// NewJobsHandler creates a new jobs handler. maxPages bounds the "pages"
// of query jobs and falls back to search.MaxPages when out of range.
func NewJobsHandler(searcher search.Searcher, comparer Comparer, jobs *JobManager, maxPages int, log logrus.FieldLogger) *JobsHandler {
	if maxPages <= 0 || maxPages > search.MaxPages {
		maxPages = search.MaxPages
	}
	return &JobsHandler{
		searcher: searcher,
		comparer: comparer,
		jobs:     jobs,
		maxPages: maxPages,
		log:      log,
	}
}

// Start validates the request and launches the job.
func (h *JobsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.ImageURL == "" {
		respondError(w, http.StatusBadRequest, "Missing imageUrl")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Pages == 0 {
		req.Pages = 1
	}
	if req.Query != "" {
		if _, err := search.ResolvePages(req.Pages, h.maxPages); err != nil {
			respondError(w, statusForError(err), err.Error())
			return
		}
	}

	total := len(req.Candidates)
	if req.Query != "" {
		total = 0
	}
	job := h.jobs.CreateJob(req.ImageURL, req.Query, total)

	go h.run(job, req)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  job.ID(),
		"status": string(JobStatusPending),
	})
}

// List returns every known job, newest first.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.ListJobs()
	views := make([]CompareJobView, 0, len(jobs))
	for _, job := range jobs {
		view := job.View()
		view.Results = nil
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].StartedAt.After(views[j].StartedAt)
	})
	respondJSON(w, http.StatusOK, views)
}

// Status returns the job snapshot, including results once completed.
func (h *JobsHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.lookup(w, r)
	if job == nil {
		return
	}
	respondJSON(w, http.StatusOK, job.View())
}

// Events streams job events via SSE.
func (h *JobsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobs.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job.(*CompareJob).View()
		},
	)
}

// Cancel stops a pending or running job.
func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job := h.lookup(w, r)
	if job == nil {
		return
	}

	if !job.Cancel() {
		respondError(w, http.StatusConflict, "job already finished")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

func (h *JobsHandler) lookup(w http.ResponseWriter, r *http.Request) *CompareJob {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return nil
	}

	job := h.jobs.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return nil
	}
	return job
}

func (h *JobsHandler) run(job *CompareJob, req JobRequest) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !job.start(cancel) {
		return
	}
	log := h.log.WithField("job_id", job.ID())
	job.SendEvent(JobEvent{Type: "started", Message: "Comparison started"})

	candidates := req.Candidates
	if req.Query != "" {
		found, err := h.searcher.Search(ctx, req.Query, req.Pages)
		if err != nil {
			h.failJob(job, log, err)
			return
		}
		candidates = search.FilterByName(found, req.Filter)
		job.setTotal(len(candidates))
		job.SendEvent(JobEvent{
			Type:    "search",
			Message: fmt.Sprintf("Found %d candidates", len(candidates)),
			Data:    progressData{Total: len(candidates)},
		})
	}

	results := h.comparer.RunWithProgress(ctx, req.ImageURL, candidates, func(done, total int) {
		job.setProgress(done, total)
		job.SendEvent(JobEvent{Type: "progress", Data: progressData{Done: done, Total: total}})
	})
	if req.Sort == sortBySimilarity {
		compare.SortBySimilarity(results)
	}
	if results == nil {
		results = []compare.Result{}
	}

	if !job.finish(JobStatusCompleted, results, "") {
		log.Info("Comparison job cancelled")
		return
	}

	summary := compare.Summarize(results)
	log.WithFields(logrus.Fields{
		"compared": summary.Compared,
		"no_image": summary.NoImage,
		"failed":   summary.Failed,
	}).Info("Comparison job completed")
	job.SendEvent(JobEvent{Type: string(JobStatusCompleted), Data: summary})
}

func (h *JobsHandler) failJob(job *CompareJob, log logrus.FieldLogger, err error) {
	if !job.finish(JobStatusFailed, nil, err.Error()) {
		return
	}
	log.WithError(err).Error("Comparison job failed")
	job.SendEvent(JobEvent{Type: string(JobStatusFailed), Message: err.Error()})
}
