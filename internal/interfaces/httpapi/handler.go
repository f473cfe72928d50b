package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
	"github.com/riskibarqy/ticket-marketplace/internal/worker"
)

const defaultRunsLimit = 20

// PriceRunner is the part of worker.PriceWorker the API drives.
type PriceRunner interface {
	RunOnce(ctx context.Context, leagues []string) (worker.RunSummary, error)
	Status() worker.Status
	RunTimeout() time.Duration
}

// StatusReporter exposes a worker's scheduling state.
type StatusReporter interface {
	Status() worker.Status
}

type Handler struct {
	priceWorker PriceRunner
	feedWorker  StatusReporter
	runs        workerrun.Repository
	logger      *logging.Logger
	validator   *validator.Validate
}

// NewHandler wires the status API. feedWorker may be nil when no feed is
// configured.
func NewHandler(priceWorker PriceRunner, feedWorker StatusReporter, runs workerrun.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		priceWorker: priceWorker,
		feedWorker:  feedWorker,
		runs:        runs,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) WorkerStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WorkerStatus")
	defer span.End()

	items := make([]worker.Status, 0, 2)
	if h.priceWorker != nil {
		items = append(items, h.priceWorker.Status())
	}
	if h.feedWorker != nil {
		items = append(items, h.feedWorker.Status())
	}

	writeSuccess(ctx, w, http.StatusOK, workerStatusDTO{Workers: items})
}

// TriggerPriceRun starts a price run in the background and answers 202.
// A run already in flight answers 409.
func (h *Handler) TriggerPriceRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerPriceRun", workerAttr(worker.PriceWorkerName))
	defer span.End()

	if h.priceWorker == nil {
		writeError(ctx, w, fmt.Errorf("%w: price worker is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req triggerRunRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := jsoniter.Unmarshal(body, &req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
			return
		}
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	status := h.priceWorker.Status()
	if status.IsRunning {
		writeError(ctx, w, fmt.Errorf("%w: %s", usecase.ErrAlreadyRunning, status.Worker))
		return
	}

	timeout := h.priceWorker.RunTimeout()
	if timeout <= 0 {
		timeout = worker.DefaultRunTimeout
	}
	// The run outlives the request but not the worker's run timeout.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	go func() {
		defer cancel()
		summary, err := h.priceWorker.RunOnce(runCtx, req.Leagues)
		switch {
		case errors.Is(err, usecase.ErrAlreadyRunning):
			h.logger.WarnContext(runCtx, "triggered run skipped", "error", err)
		case err != nil:
			h.logger.ErrorContext(runCtx, "triggered run failed", "error", err)
		default:
			h.logger.InfoContext(runCtx, "triggered run finished",
				"leagues", len(summary.Leagues),
				"failed", summary.Failed,
			)
		}
	}()

	writeSuccess(ctx, w, http.StatusAccepted, triggerRunDTO{
		Worker:  status.Worker,
		Leagues: req.Leagues,
		Status:  "accepted",
	})
}

func (h *Handler) ListWorkerRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWorkerRuns")
	defer span.End()

	if h.runs == nil {
		writeError(ctx, w, fmt.Errorf("%w: run history is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	query := r.URL.Query()
	req := listRunsRequest{Worker: strings.TrimSpace(query.Get("worker")), Limit: defaultRunsLimit}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		req.Limit = limit
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	span.SetAttributes(workerAttr(req.Worker))
	runs, err := h.runs.ListRecent(ctx, req.Worker, req.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list worker runs failed", "worker", req.Worker, "error", err)
		writeError(ctx, w, err)
		return
	}
	if runs == nil {
		runs = []workerrun.Run{}
	}

	writeSuccess(ctx, w, http.StatusOK, runs)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type triggerRunRequest struct {
	Leagues []string `json:"leagues" validate:"omitempty,max=50,dive,required"`
}

type listRunsRequest struct {
	Worker string `validate:"omitempty,max=64"`
	Limit  int    `validate:"min=1,max=200"`
}

type workerStatusDTO struct {
	Workers []worker.Status `json:"workers"`
}

type triggerRunDTO struct {
	Worker  string   `json:"worker"`
	Leagues []string `json:"leagues,omitempty"`
	Status  string   `json:"status"`
}
