package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/copyleftdev/brainwall/internal/config"
	"github.com/copyleftdev/brainwall/internal/errors"
	"github.com/copyleftdev/brainwall/internal/logging"
	"github.com/copyleftdev/brainwall/internal/optimization"
	"github.com/copyleftdev/brainwall/internal/optimization/annealing"
	"github.com/copyleftdev/brainwall/internal/optimization/evaluator"
	"github.com/copyleftdev/brainwall/internal/optimization/hillclimb"
	"github.com/copyleftdev/brainwall/internal/problem"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

var (
	errJobNotFound  = errors.New("job not found").WithComponent("server")
	errJobFinished  = errors.New("job already finished").WithComponent("server")
	errQueueTimeout = errors.New("timed out waiting for a worker").WithComponent("server")
)

// SolveRequest is the body of a solve call. Zero budgets fall back to the
// server configuration; a missing pose starts from the figure's own vertices.
type SolveRequest struct {
	Problem    *problem.Problem `json:"problem"`
	Pose       *problem.Pose    `json:"pose,omitempty"`
	Strategy   string           `json:"strategy,omitempty"`
	Seed       int64            `json:"seed,omitempty"`
	MoveBudget int              `json:"move_budget,omitempty"`
	Patience   int              `json:"patience,omitempty"`
	MaxRounds  int              `json:"max_rounds,omitempty"`
	MaxMoves   int              `json:"max_moves,omitempty"`
	Cycles     int              `json:"cycles,omitempty"`
}

// EvaluateRequest is the body of an evaluate call.
type EvaluateRequest struct {
	Problem *problem.Problem `json:"problem"`
	Pose    *problem.Pose    `json:"pose"`
}

// JobRef identifies a job in start and cancel responses.
type JobRef struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatus is the externally visible state of a job.
type JobStatus struct {
	JobID       string                 `json:"job_id"`
	Strategy    string                 `json:"strategy"`
	Status      string                 `json:"status"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     *time.Time             `json:"end_time,omitempty"`
	LastUpdated time.Time              `json:"last_update"`
	Rounds      int                    `json:"rounds"`
	Moves       int                    `json:"moves"`
	Accepted    int                    `json:"accepted"`
	Converged   bool                   `json:"converged"`
	Best        *optimization.Solution `json:"best,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// jobState tracks one solve job. Fields are guarded by Server.jobsMu.
type jobState struct {
	status JobStatus
	cancel context.CancelFunc
}

func (j *jobState) finished() bool {
	switch j.status.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Server implements the HTTP and JSON-RPC server for the solver service.
// It manages solve jobs and provides endpoints to start, monitor, and cancel them.
type Server struct {
	cfg      *config.Config
	logger   Logger
	observer optimization.Observer

	// sem bounds the number of jobs running at once
	sem chan struct{}
	wg  sync.WaitGroup

	jobs   map[string]*jobState
	jobsMu sync.RWMutex // Protects jobs and every jobState
}

// NewServer creates a new server instance with the given config and logger.
// Every job reports to observers in addition to updating its own status.
func NewServer(cfg *config.Config, logger Logger, observers ...optimization.Observer) *Server {
	workers := cfg.Solver.WorkerCount
	if workers < 1 {
		workers = 1
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		observer: optimization.Observers(observers...),
		sem:      make(chan struct{}, workers),
		jobs:     make(map[string]*jobState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/solve/{id}", s.handleCancel)
		r.Post("/evaluate", s.handleEvaluate)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Start validates req and queues the job. The strategy is built once a worker
// picks the job up.
func (s *Server) Start(req SolveRequest) (*JobRef, error) {
	if req.Problem == nil {
		return nil, errors.New("problem is required").WithComponent("server").WithOperation("start")
	}
	if req.Pose == nil {
		req.Pose = &problem.Pose{
			Vertices: slices.Clone(req.Problem.Figure.Vertices),
		}
	}
	if req.Strategy == "" {
		req.Strategy = s.cfg.Solver.Strategy
	}
	if req.Seed == 0 {
		req.Seed = s.cfg.Solver.Seed
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	s.prune(time.Now())

	id := uuid.NewString()
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.cfg.Solver.JobTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.cfg.Solver.JobTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	now := time.Now()
	job := &jobState{
		status: JobStatus{
			JobID:       id,
			Strategy:    req.Strategy,
			Status:      StatusPending,
			StartTime:   now,
			LastUpdated: now,
		},
		cancel: cancel,
	}

	s.jobsMu.Lock()
	s.jobs[id] = job
	s.jobsMu.Unlock()

	s.logger.Info("Solve job queued", map[string]interface{}{
		"job_id":   id,
		"strategy": req.Strategy,
		"vertices": len(req.Pose.Vertices),
	})

	s.wg.Add(1)
	go s.runJob(ctx, job, req)

	return &JobRef{JobID: id, Status: StatusPending}, nil
}

func pick(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func (s *Server) annealConfig(req SolveRequest) annealing.Config {
	solver := s.cfg.Solver
	return annealing.Config{
		MoveBudget:       pick(req.MoveBudget, solver.MoveBudget),
		Patience:         pick(req.Patience, solver.Patience),
		MaxRounds:        pick(req.MaxRounds, solver.MaxRounds),
		MaxMoves:         pick(req.MaxMoves, solver.MaxMoves),
		RelaxationRounds: solver.RelaxationRounds,
		MaxGridCells:     solver.MaxGridCells,
		Seed:             req.Seed,
	}
}

func (s *Server) climbConfig(req SolveRequest) hillclimb.Config {
	return hillclimb.Config{
		Cycles: pick(req.Cycles, s.cfg.Solver.Cycles),
		Seed:   req.Seed,
	}
}

// validate runs the checks of the strategy constructors without building
// anything, so bad requests are refused before they are queued.
func (s *Server) validate(req SolveRequest) error {
	switch req.Strategy {
	case annealing.StrategyName:
		return annealing.Validate(req.Problem, req.Pose, s.annealConfig(req))
	case hillclimb.StrategyName:
		return hillclimb.Validate(req.Problem, req.Pose, s.climbConfig(req))
	default:
		return errors.Errorf("unknown strategy %q", req.Strategy).WithComponent("server").WithOperation("start")
	}
}

func (s *Server) newStrategy(req SolveRequest, observer optimization.Observer) (optimization.Strategy, error) {
	switch req.Strategy {
	case annealing.StrategyName:
		return annealing.New(req.Problem, req.Pose, s.annealConfig(req), observer)
	case hillclimb.StrategyName:
		return hillclimb.New(req.Problem, req.Pose, s.climbConfig(req), observer)
	default:
		return nil, errors.Errorf("unknown strategy %q", req.Strategy).WithComponent("server").WithOperation("start")
	}
}

// runJob builds and executes one job once a worker slot is free.
func (s *Server) runJob(ctx context.Context, job *jobState, req SolveRequest) {
	defer s.wg.Done()
	defer job.cancel()

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = errQueueTimeout
		}
		s.finishJob(job, nil, err)
		return
	}

	s.jobsMu.Lock()
	if job.finished() {
		s.jobsMu.Unlock()
		return
	}
	job.status.Status = StatusRunning
	job.status.LastUpdated = time.Now()
	s.jobsMu.Unlock()

	strategy, err := s.newStrategy(req, optimization.Observers(&jobObserver{s: s, job: job}, s.observer))
	if err != nil {
		s.finishJob(job, nil, err)
		return
	}
	res, err := strategy.Optimize(ctx)
	s.finishJob(job, res, err)
}

func (s *Server) finishJob(job *jobState, res *optimization.Result, err error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	st := &job.status
	if res != nil {
		st.Rounds = res.Rounds
		st.Moves = res.Moves
		st.Accepted = res.Accepted
		st.Converged = res.Converged
		st.Best = res.Best
	}

	fields := map[string]interface{}{
		"job_id":   st.JobID,
		"strategy": st.Strategy,
		"moves":    st.Moves,
	}
	if st.Best != nil {
		fields["dislikes"] = st.Best.Dislikes
		fields["feasible"] = st.Best.Feasible
	}

	switch {
	case st.Status == StatusCancelled:
		// cancelled through the API; keep the status and record what was found
	case err == nil, errors.Is(err, context.DeadlineExceeded):
		st.Status = StatusCompleted
		s.logger.Info("Solve job completed", fields)
	case errors.Is(err, context.Canceled):
		st.Status = StatusCancelled
	default:
		st.Status = StatusFailed
		st.Error = err.Error()
		fields["error"] = err.Error()
		var se *errors.Error
		if errors.As(err, &se) {
			fields["stack"] = se.StackTrace()
		}
		s.logger.Error("Solve job failed", fields)
	}

	now := time.Now()
	if st.EndTime == nil {
		st.EndTime = &now
	}
	st.LastUpdated = now
}

// prune drops jobs that finished more than the retention period before now
// and returns how many were dropped.
func (s *Server) prune(now time.Time) int {
	retention := s.cfg.Solver.JobRetention
	if retention <= 0 {
		return 0
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	var n int
	for id, job := range s.jobs {
		if !job.finished() || job.status.EndTime == nil {
			continue
		}
		if now.Sub(*job.status.EndTime) > retention {
			delete(s.jobs, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Debug("Pruned finished jobs", map[string]interface{}{
			"pruned":    n,
			"remaining": len(s.jobs),
		})
	}
	return n
}

// Evaluate scores req.Pose against req.Problem without searching.
func (s *Server) Evaluate(req EvaluateRequest) (*evaluator.Report, error) {
	if req.Problem == nil {
		return nil, errors.New("problem is required").WithComponent("server").WithOperation("evaluate")
	}
	if err := req.Problem.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid problem").WithComponent("server").WithOperation("evaluate")
	}
	if err := req.Problem.ValidatePose(req.Pose); err != nil {
		return nil, errors.Wrap(err, "invalid pose").WithComponent("server").WithOperation("evaluate")
	}

	report := evaluator.Assess(req.Problem, *req.Pose)
	s.logger.Debug("Pose evaluated", map[string]interface{}{
		"dislikes": report.Dislikes,
		"feasible": report.Feasible,
	})
	return &report, nil
}

// Status returns a snapshot of job id.
func (s *Server) Status(id string) (*JobStatus, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, errJobNotFound
	}
	st := job.status
	st.Best = st.Best.Clone()
	return &st, nil
}

// Cancel stops job id. Cancelling a finished job is an error.
func (s *Server) Cancel(id string) (*JobRef, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, errJobNotFound
	}
	if job.finished() {
		return nil, errors.Wrapf(errJobFinished, "cannot cancel job with status %s", job.status.Status)
	}

	job.cancel()
	now := time.Now()
	job.status.Status = StatusCancelled
	job.status.EndTime = &now
	job.status.LastUpdated = now

	s.logger.Info("Solve job cancelled", map[string]interface{}{
		"job_id": id,
	})
	return &JobRef{JobID: id, Status: StatusCancelled}, nil
}

// Close cancels every job and waits for the running ones to return.
func (s *Server) Close() error {
	s.jobsMu.RLock()
	for _, job := range s.jobs {
		job.cancel()
	}
	s.jobsMu.RUnlock()

	s.wg.Wait()
	return nil
}

// jobObserver keeps a job's status current while its strategy runs.
type jobObserver struct {
	s   *Server
	job *jobState
}

func (o *jobObserver) OnImprovement(_ context.Context, _ string, sol *optimization.Solution) {
	o.s.jobsMu.Lock()
	defer o.s.jobsMu.Unlock()
	o.job.status.Best = sol.Clone()
	o.job.status.LastUpdated = time.Now()
}

func (o *jobObserver) OnRound(_ context.Context, _ string, stats optimization.RoundStats) {
	o.s.jobsMu.Lock()
	defer o.s.jobsMu.Unlock()
	o.job.status.Rounds++
	o.job.status.Moves += stats.Moves
	o.job.status.Accepted += stats.Accepted
	o.job.status.LastUpdated = time.Now()
}

func (o *jobObserver) OnComplete(context.Context, string, *optimization.Result) {}

// handleSolve handles POST /api/v1/solve
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	ref, err := s.Start(req)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.respondJSON(w, http.StatusAccepted, ref)
}

// handleStatus handles GET /api/v1/status/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Status(chi.URLParam(r, "id"))
	if err != nil {
		s.respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

// handleCancel handles DELETE /api/v1/solve/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ref, err := s.Cancel(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, errJobNotFound):
		s.respondJSON(w, http.StatusNotFound, map[string]interface{}{"error": err.Error()})
	case err != nil:
		s.respondJSON(w, http.StatusConflict, map[string]interface{}{"error": err.Error()})
	default:
		s.respondJSON(w, http.StatusOK, ref)
	}
}

// handleEvaluate handles POST /api/v1/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	report, err := s.Evaluate(req)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}
