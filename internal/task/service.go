package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidPriority = errors.New("priority must be one of: low, medium, high")
	ErrInvalidStatus   = errors.New("status must be one of: To Do, In Progress, Done")
)

// Store defines the persistence operations the service needs
type Store interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, status Status) ([]*Task, error)
	GetByID(ctx context.Context, ownerID, taskID uuid.UUID) (*Task, error)
	Update(ctx context.Context, t *Task) (*Task, error)
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) error
}

// Params carries the mutable task fields for create and update.
// Empty priority and status take their documented defaults.
type Params struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	Status      Status
}

// Service handles task business logic. The owner id always comes from the
// authenticated session, never from client input.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the owner's tasks, newest first. Status filters in the query;
// search is applied in memory over the status-filtered, owner-scoped set,
// as a case-insensitive substring match on title or description.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, status Status, search string) ([]*Task, error) {
	if status == "all" {
		status = ""
	}

	tasks, err := s.store.ListByOwner(ctx, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	if search == "" {
		return tasks, nil
	}

	searchLower := strings.ToLower(search)
	filtered := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), searchLower) ||
			strings.Contains(strings.ToLower(t.Description), searchLower) {
			filtered = append(filtered, t)
		}
	}

	return filtered, nil
}

// Create validates and persists a new task for the owner
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, params Params) (*Task, error) {
	normalized, err := normalize(params)
	if err != nil {
		return nil, err
	}

	return s.store.Create(ctx, &Task{
		OwnerID:     ownerID,
		Title:       normalized.Title,
		Description: normalized.Description,
		DueDate:     normalized.DueDate,
		Priority:    normalized.Priority,
		Status:      normalized.Status,
	})
}

// Get returns a single owned task
func (s *Service) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*Task, error) {
	return s.store.GetByID(ctx, ownerID, taskID)
}

// Update replaces the mutable fields of an owned task. Validation runs
// before any store access, so a failed update leaves the task unchanged.
func (s *Service) Update(ctx context.Context, ownerID, taskID uuid.UUID, params Params) (*Task, error) {
	normalized, err := normalize(params)
	if err != nil {
		return nil, err
	}

	return s.store.Update(ctx, &Task{
		ID:          taskID,
		OwnerID:     ownerID,
		Title:       normalized.Title,
		Description: normalized.Description,
		DueDate:     normalized.DueDate,
		Priority:    normalized.Priority,
		Status:      normalized.Status,
	})
}

// Delete removes an owned task
func (s *Service) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	return s.store.Delete(ctx, ownerID, taskID)
}

// normalize trims fields, applies defaults, and validates enums
func normalize(params Params) (Params, error) {
	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" {
		return Params{}, ErrTitleRequired
	}

	params.Description = strings.TrimSpace(params.Description)

	if params.Priority == "" {
		params.Priority = PriorityMedium
	}
	if !params.Priority.Valid() {
		return Params{}, ErrInvalidPriority
	}

	if params.Status == "" {
		params.Status = StatusToDo
	}
	if !params.Status.Valid() {
		return Params{}, ErrInvalidStatus
	}

	return params, nil
}
