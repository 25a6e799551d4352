package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow-api/internal/auth"
	"github.com/taskflowhq/taskflow-api/internal/httputil"
	"github.com/taskflowhq/taskflow-api/internal/logging"
)

// Handler contains HTTP handlers for the task endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// TaskRequest represents the create/update request body.
// DueDate accepts RFC 3339 or a plain calendar date (2006-01-02).
type TaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     *string  `json:"dueDate"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
}

// TaskResponse wraps a single task
type TaskResponse struct {
	Task    *Task  `json:"task"`
	Message string `json:"message,omitempty"`
}

// TaskListResponse wraps a task list
type TaskListResponse struct {
	Tasks []*Task `json:"tasks"`
}

// List handles GET /tasks
// @Summary      List tasks
// @Description  List the authenticated user's tasks, newest first, with optional status and search filters
// @Tags         tasks
// @Produce      json
// @Param        status query string false "Exact status filter, or 'all'"
// @Param        search query string false "Case-insensitive substring over title or description"
// @Success      200 {object} TaskListResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Router       /tasks [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	status := Status(r.URL.Query().Get("status"))
	search := r.URL.Query().Get("search")

	tasks, err := h.service.List(r.Context(), ownerID, status, search)
	if err != nil {
		logger.Error("failed to list tasks", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch tasks", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, TaskListResponse{Tasks: tasks}, http.StatusOK)
}

// Create handles POST /tasks
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        request body TaskRequest true "Task fields"
// @Success      201 {object} TaskResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Router       /tasks [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), ownerID, params)
	if err != nil {
		h.respondServiceError(w, logger, err, "failed to create task")
		return
	}

	logger.Info("task created", "task_id", created.ID)

	httputil.RespondJSON(w, TaskResponse{Task: created, Message: "Task created successfully"}, http.StatusCreated)
}

// Get handles GET /tasks/{id}
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} TaskResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid task ID"
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "Task not found"
// @Router       /tasks/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	taskID, ok := h.parseTaskID(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), ownerID, taskID)
	if err != nil {
		h.respondServiceError(w, logger, err, "failed to fetch task")
		return
	}

	httputil.RespondJSON(w, TaskResponse{Task: found}, http.StatusOK)
}

// Update handles PUT /tasks/{id}
// @Summary      Update a task
// @Description  Full replace of the mutable fields in one atomic operation
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body TaskRequest true "Task fields"
// @Success      200 {object} TaskResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid task ID or validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "Task not found"
// @Router       /tasks/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	taskID, ok := h.parseTaskID(w, r)
	if !ok {
		return
	}

	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), ownerID, taskID, params)
	if err != nil {
		h.respondServiceError(w, logger, err, "failed to update task")
		return
	}

	logger.Info("task updated", "task_id", updated.ID)

	httputil.RespondJSON(w, TaskResponse{Task: updated, Message: "Task updated successfully"}, http.StatusOK)
}

// Delete handles DELETE /tasks/{id}
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid task ID"
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "Task not found"
// @Router       /tasks/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	taskID, ok := h.parseTaskID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, taskID); err != nil {
		h.respondServiceError(w, logger, err, "failed to delete task")
		return
	}

	logger.Info("task deleted", "task_id", taskID)

	httputil.RespondJSON(w, map[string]string{"message": "Task deleted successfully"}, http.StatusOK)
}

// parseTaskID validates the path id; malformed ids are rejected before any store access
func (h *Handler) parseTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid task ID", httputil.CodeInvalidTaskID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return taskID, true
}

// decodeParams decodes and converts the request body, writing the error response itself
func (h *Handler) decodeParams(w http.ResponseWriter, r *http.Request) (Params, bool) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return Params{}, false
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		httputil.RespondErrorWithCode(w, "dueDate must be RFC 3339 or YYYY-MM-DD", httputil.CodeValidationError, http.StatusBadRequest)
		return Params{}, false
	}

	return Params{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	}, true
}

// respondServiceError maps service errors to the HTTP error taxonomy
func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTitleRequired):
		httputil.RespondErrorWithCode(w, "Title is required", httputil.CodeTitleRequired, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidPriority), errors.Is(err, ErrInvalidStatus):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationError, http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "Task not found", httputil.CodeTaskNotFound, http.StatusNotFound)
	default:
		logger.Error(fallback, "error", err.Error())
		httputil.RespondErrorWithCode(w, fallback, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// parseDueDate accepts an RFC 3339 timestamp or a bare calendar date
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
