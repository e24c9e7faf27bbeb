package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/olgkv/tasklist/internal/domain"
	pdfgen "github.com/olgkv/tasklist/internal/pdf"
	"github.com/olgkv/tasklist/internal/ports"
)

// Service validates input and applies single task mutations on top of a
// TaskStorage. Validation always runs before storage is touched.
type Service struct {
	storage ports.TaskStorage
	now     func() time.Time
}

func New(storage ports.TaskStorage) *Service {
	return &Service{storage: storage, now: time.Now}
}

// AddTask stores a new Pending task named name (trimmed) and returns it.
func (s *Service) AddTask(ctx context.Context, name string) (*domain.Task, error) {
	if err := ValidateTaskName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	// second precision, matching what the file and the table keep
	created := s.now().Truncate(time.Second)
	task, err := s.storage.Create(ctx, name, domain.StatusPending, created)
	if err != nil {
		return nil, err
	}
	slog.Debug("task added", "id", task.ID, "name", task.Name)
	return task, nil
}

// RenameTask changes only the name. A missing id is reported as domain.ErrNotFound.
func (s *Service) RenameTask(ctx context.Context, id int, name string) error {
	if err := ValidateTaskID(id); err != nil {
		return err
	}
	if err := ValidateTaskName(name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	if err := s.storage.Rename(ctx, id, name); err != nil {
		return err
	}
	slog.Debug("task renamed", "id", id, "name", name)
	return nil
}

func (s *Service) UpdateTaskStatus(ctx context.Context, id int, status domain.Status) error {
	if err := ValidateTaskID(id); err != nil {
		return err
	}
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return err
	}

	if err := s.storage.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	slog.Debug("task status updated", "id", id, "status", status)
	return nil
}

func (s *Service) DeleteTask(ctx context.Context, id int) error {
	if err := ValidateTaskID(id); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	slog.Debug("task deleted", "id", id)
	return nil
}

func (s *Service) GetTaskByID(ctx context.Context, id int) (*domain.Task, error) {
	if err := ValidateTaskID(id); err != nil {
		return nil, err
	}
	return s.storage.Get(ctx, id)
}

// ListTasks returns every task in storage order.
func (s *Service) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.storage.List(ctx)
}

// FilterTasks lists tasks with the given status. An empty or unknown status
// returns all tasks.
func (s *Service) FilterTasks(ctx context.Context, status string) ([]*domain.Task, error) {
	tasks, err := s.storage.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterByStatus(tasks, status), nil
}

// Stats returns the number of tasks and how many of them are Completed.
func (s *Service) Stats(ctx context.Context) (total int, completed int, err error) {
	tasks, err := s.storage.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, t := range tasks {
		total++
		if t.Status == domain.StatusCompleted {
			completed++
		}
	}
	return total, completed, nil
}

// GenerateReport renders the (optionally filtered) task list as a PDF.
func (s *Service) GenerateReport(ctx context.Context, status string) ([]byte, error) {
	tasks, err := s.FilterTasks(ctx, status)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pdfgen.BuildTasksReport(tasks, s.now())
}
