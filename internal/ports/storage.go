package ports

import (
	"context"
	"time"

	"github.com/olgkv/tasklist/internal/domain"
)

// TaskStorage describes persistence operations required by the task service.
// Lookups and mutations of a missing id return an error matching domain.ErrNotFound.
type TaskStorage interface {
	List(ctx context.Context) ([]*domain.Task, error)
	Get(ctx context.Context, id int) (*domain.Task, error)
	Create(ctx context.Context, name string, status domain.Status, created time.Time) (*domain.Task, error)
	Rename(ctx context.Context, id int, name string) error
	UpdateStatus(ctx context.Context, id int, status domain.Status) error
	Delete(ctx context.Context, id int) error
}
